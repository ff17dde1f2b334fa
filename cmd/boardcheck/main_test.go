package main

import (
	"testing"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
)

func TestInferSize(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"simple", "START 0 0\n0 1 0\n0 0 END\n", 3},
		{"leading blank line", "\nSTART 0\nEND 0\n", 2},
		{"empty", "", 0},
		{"only whitespace", "  \n\t\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferSize(tt.source); got != tt.want {
				t.Errorf("inferSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReachable(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		source string
		want   bool
	}{
		{
			name:   "open path",
			size:   3,
			source: "START 0 0\n0 1 0\n0 0 END\n",
			want:   true,
		},
		{
			name:   "walled off end",
			size:   3,
			source: "START 0 0\n1 1 1\n0 0 END\n",
			want:   false,
		},
		{
			name:   "adjacent start and end",
			size:   2,
			source: "START END\n0 0\n",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := board.New(tt.size, tt.source)
			if err != nil {
				t.Fatalf("Failed to build board: %v", err)
			}
			if got := reachable(b); got != tt.want {
				t.Errorf("reachable() = %v, want %v", got, tt.want)
			}
		})
	}
}
