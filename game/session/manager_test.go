package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/robot"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

const testBoardSource = "START 0 0\n0 1 0\n0 0 END\n"

func createTestBoard(t *testing.T) *board.Board {
	t.Helper()
	b, err := board.New(3, testBoardSource)
	if err != nil {
		t.Fatalf("Failed to create test board: %v", err)
	}
	return b
}

func createTestRun(t *testing.T, m *Manager, id string) *service.Run {
	t.Helper()
	run, err := m.Create(id, createTestBoard(t), "test", robot.DefaultProgram, robot.NewWallFollower())
	if err != nil {
		t.Fatalf("Failed to create run: %v", err)
	}
	return run
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()

	t.Run("create with custom ID", func(t *testing.T) {
		run := createTestRun(t, manager, "test-run")
		if run.ID != "test-run" {
			t.Errorf("Expected run ID 'test-run', got '%s'", run.ID)
		}
		if run.Board == nil {
			t.Error("Expected board to be initialized")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		run := createTestRun(t, manager, "")
		if run.ID == "" {
			t.Error("Expected auto-generated run ID")
		}
		if len(run.ID) != 4 {
			t.Errorf("Expected 4-character run ID, got %d characters", len(run.ID))
		}
	})

	t.Run("duplicate run ID", func(t *testing.T) {
		_, err := manager.Create("test-run", createTestBoard(t), "test", robot.DefaultProgram, robot.NewWallFollower())
		if err != ErrRunAlreadyExists {
			t.Errorf("Expected ErrRunAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-RUN", createTestBoard(t), "test", robot.DefaultProgram, robot.NewWallFollower())
		if err != ErrRunAlreadyExists {
			t.Errorf("Expected ErrRunAlreadyExists for case variant, got %v", err)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	createTestRun(t, manager, "lookup")

	t.Run("existing run", func(t *testing.T) {
		run, err := manager.Get("lookup")
		if err != nil {
			t.Fatalf("Failed to get run: %v", err)
		}
		if run.ID != "lookup" {
			t.Errorf("Expected run ID 'lookup', got '%s'", run.ID)
		}
	})

	t.Run("case-insensitive lookup", func(t *testing.T) {
		run, err := manager.Get("LOOKUP")
		if err != nil {
			t.Fatalf("Failed to get run with different case: %v", err)
		}
		if run.ID != "lookup" {
			t.Errorf("Expected run ID 'lookup', got '%s'", run.ID)
		}
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := manager.Get("nope")
		if err != ErrRunNotFound {
			t.Errorf("Expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	createTestRun(t, manager, "doomed")

	if err := manager.Delete("doomed"); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if _, err := manager.Get("doomed"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
	if err := manager.Delete("doomed"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound on double delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	createTestRun(t, manager, "one")
	createTestRun(t, manager, "two")

	runs := manager.List()
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if manager.Count() != 2 {
		t.Errorf("Expected count 2, got %d", manager.Count())
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	run := createTestRun(t, manager, "touch")
	before := run.LastAccessedAt

	time.Sleep(10 * time.Millisecond)
	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	if !run.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to advance")
	}
}

func TestManager_CleanupExpiredRuns(t *testing.T) {
	manager := NewManager()
	stale := createTestRun(t, manager, "stale")
	stale.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	createTestRun(t, manager, "fresh")

	removed := manager.CleanupExpiredRuns(1 * time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed run, got %d", removed)
	}
	if _, err := manager.Get("stale"); err != ErrRunNotFound {
		t.Errorf("Expected stale run to be removed, got %v", err)
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh run to survive, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := manager.Create("", createTestBoard(t), "test", robot.DefaultProgram, robot.NewWallFollower())
			if err != nil {
				t.Errorf("Concurrent create failed: %v", err)
				return
			}
			if _, err := manager.Get(run.ID); err != nil {
				t.Errorf("Concurrent get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if manager.Count() != 10 {
		t.Errorf("Expected 10 runs after concurrent creation, got %d", manager.Count())
	}
}

func TestManager_GeneratedIDFormat(t *testing.T) {
	manager := NewManager()
	run := createTestRun(t, manager, "")

	if len(run.ID) != 4 {
		t.Fatalf("Expected 4-character ID, got %q", run.ID)
	}
	if strings.ToLower(run.ID) != run.ID {
		t.Errorf("Expected lowercase hex ID, got %q", run.ID)
	}
	for _, c := range run.ID {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("Expected hex characters only, got %q", run.ID)
		}
	}
}
