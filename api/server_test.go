package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateRunFunc func(ctx context.Context, boardName, program string) (*service.RunInfo, error)
	GetRunFunc    func(ctx context.Context, runID string) (*service.RunInfo, error)
	ListRunsFunc  func(ctx context.Context) ([]*service.RunInfo, error)
	DeleteRunFunc func(ctx context.Context, runID string) error

	StepFunc     func(ctx context.Context, runID string) (*service.StepResult, error)
	StepManyFunc func(ctx context.Context, runID string, maxSteps int) (*service.BulkStepResult, error)
	CommandFunc  func(ctx context.Context, runID, direction string) (*service.StepResult, error)
	ResetRunFunc func(ctx context.Context, runID string) (*service.BoardState, error)

	GetBoardStateFunc func(ctx context.Context, runID string) (*service.BoardState, error)
	SetObstacleFunc   func(ctx context.Context, runID string, x, y int) (*service.BoardState, error)
	ClearObstacleFunc func(ctx context.Context, runID string, x, y int) (*service.BoardState, error)

	SetProgramFunc    func(ctx context.Context, runID, program string) error
	ReloadProgramFunc func(ctx context.Context, runID string) error

	ListBoardsFunc     func(ctx context.Context) ([]*service.BoardInfo, error)
	GetBoardSourceFunc func(ctx context.Context, name string) (string, error)
	SaveBoardFunc      func(ctx context.Context, name, source string) error
}

func testState() *service.BoardState {
	return &service.BoardState{
		Size:  3,
		Rows:  []string{"start 0 0", "0 1 0", "0 0 end"},
		End:   board.Position{X: 2, Y: 2},
		Robot: board.Position{X: 0, Y: 0},
	}
}

func (m *MockGameService) CreateRun(ctx context.Context, boardName, program string) (*service.RunInfo, error) {
	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, boardName, program)
	}
	return &service.RunInfo{
		ID:        "ab12",
		BoardName: boardName,
		Program:   program,
		CreatedAt: time.Now(),
		State:     testState(),
	}, nil
}

func (m *MockGameService) GetRun(ctx context.Context, runID string) (*service.RunInfo, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, runID)
	}
	return &service.RunInfo{ID: runID, BoardName: "classic", State: testState()}, nil
}

func (m *MockGameService) ListRuns(ctx context.Context) ([]*service.RunInfo, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx)
	}
	return []*service.RunInfo{}, nil
}

func (m *MockGameService) DeleteRun(ctx context.Context, runID string) error {
	if m.DeleteRunFunc != nil {
		return m.DeleteRunFunc(ctx, runID)
	}
	return nil
}

func (m *MockGameService) Step(ctx context.Context, runID string) (*service.StepResult, error) {
	if m.StepFunc != nil {
		return m.StepFunc(ctx, runID)
	}
	return &service.StepResult{Move: "forward", Moved: true, State: testState()}, nil
}

func (m *MockGameService) StepMany(ctx context.Context, runID string, maxSteps int) (*service.BulkStepResult, error) {
	if m.StepManyFunc != nil {
		return m.StepManyFunc(ctx, runID, maxSteps)
	}
	return &service.BulkStepResult{Requested: maxSteps, Executed: 1, StoppedReason: "limit", State: testState()}, nil
}

func (m *MockGameService) Command(ctx context.Context, runID, direction string) (*service.StepResult, error) {
	if m.CommandFunc != nil {
		return m.CommandFunc(ctx, runID, direction)
	}
	return &service.StepResult{Move: direction, Moved: true, State: testState()}, nil
}

func (m *MockGameService) ResetRun(ctx context.Context, runID string) (*service.BoardState, error) {
	if m.ResetRunFunc != nil {
		return m.ResetRunFunc(ctx, runID)
	}
	return testState(), nil
}

func (m *MockGameService) GetBoardState(ctx context.Context, runID string) (*service.BoardState, error) {
	if m.GetBoardStateFunc != nil {
		return m.GetBoardStateFunc(ctx, runID)
	}
	return testState(), nil
}

func (m *MockGameService) SetObstacle(ctx context.Context, runID string, x, y int) (*service.BoardState, error) {
	if m.SetObstacleFunc != nil {
		return m.SetObstacleFunc(ctx, runID, x, y)
	}
	return testState(), nil
}

func (m *MockGameService) ClearObstacle(ctx context.Context, runID string, x, y int) (*service.BoardState, error) {
	if m.ClearObstacleFunc != nil {
		return m.ClearObstacleFunc(ctx, runID, x, y)
	}
	return testState(), nil
}

func (m *MockGameService) SetProgram(ctx context.Context, runID, program string) error {
	if m.SetProgramFunc != nil {
		return m.SetProgramFunc(ctx, runID, program)
	}
	return nil
}

func (m *MockGameService) ReloadProgram(ctx context.Context, runID string) error {
	if m.ReloadProgramFunc != nil {
		return m.ReloadProgramFunc(ctx, runID)
	}
	return nil
}

func (m *MockGameService) ListBoards(ctx context.Context) ([]*service.BoardInfo, error) {
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc(ctx)
	}
	return []*service.BoardInfo{{Name: "classic", Size: 3}}, nil
}

func (m *MockGameService) GetBoardSource(ctx context.Context, name string) (string, error) {
	if m.GetBoardSourceFunc != nil {
		return m.GetBoardSourceFunc(ctx, name)
	}
	return "START 0 0\n0 1 0\n0 0 END\n", nil
}

func (m *MockGameService) SaveBoard(ctx context.Context, name, source string) error {
	if m.SaveBoardFunc != nil {
		return m.SaveBoardFunc(ctx, name, source)
	}
	return nil
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandleCreateRun(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	t.Run("success", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/runs", map[string]string{"board": "classic"})
		if rec.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var run service.RunInfo
		decodeBody(t, rec, &run)
		if run.ID != "ab12" {
			t.Errorf("Expected run ID 'ab12', got %q", run.ID)
		}
		if run.BoardName != "classic" {
			t.Errorf("Expected board 'classic', got %q", run.BoardName)
		}
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/runs", nil)
		if rec.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d", rec.Code)
		}
	})

	t.Run("service error", func(t *testing.T) {
		failing := NewServer(&MockGameService{
			CreateRunFunc: func(ctx context.Context, boardName, program string) (*service.RunInfo, error) {
				return nil, errors.New("board not found")
			},
		}, nil)

		rec := doRequest(t, failing, "POST", "/api/runs", map[string]string{"board": "nope"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}

		var resp map[string]string
		decodeBody(t, rec, &resp)
		if resp["error"] == "" {
			t.Error("Expected error message in response")
		}
	})
}

func TestHandleListRuns(t *testing.T) {
	now := time.Now()
	server := NewServer(&MockGameService{
		ListRunsFunc: func(ctx context.Context) ([]*service.RunInfo, error) {
			return []*service.RunInfo{
				{ID: "old", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now},
			}, nil
		},
	}, nil)

	t.Run("default sort by last access desc", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/runs", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp struct {
			Count int                `json:"count"`
			Runs  []*service.RunInfo `json:"runs"`
		}
		decodeBody(t, rec, &resp)
		if resp.Count != 2 {
			t.Fatalf("Expected 2 runs, got %d", resp.Count)
		}
		if resp.Runs[0].ID != "new" {
			t.Errorf("Expected most recent run first, got %q", resp.Runs[0].ID)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/runs?limit=1", nil)
		var resp struct {
			Runs []*service.RunInfo `json:"runs"`
		}
		decodeBody(t, rec, &resp)
		if len(resp.Runs) != 1 {
			t.Errorf("Expected 1 run, got %d", len(resp.Runs))
		}
	})

	t.Run("sort created asc", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/runs?sort=created&order=asc", nil)
		var resp struct {
			Runs []*service.RunInfo `json:"runs"`
		}
		decodeBody(t, rec, &resp)
		if resp.Runs[0].ID != "old" {
			t.Errorf("Expected oldest run first, got %q", resp.Runs[0].ID)
		}
	})
}

func TestHandleGetRun(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	rec := doRequest(t, server, "GET", "/api/runs/ab12", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var run service.RunInfo
	decodeBody(t, rec, &run)
	if run.ID != "ab12" {
		t.Errorf("Expected run ID 'ab12', got %q", run.ID)
	}

	t.Run("not found", func(t *testing.T) {
		failing := NewServer(&MockGameService{
			GetRunFunc: func(ctx context.Context, runID string) (*service.RunInfo, error) {
				return nil, errors.New("run not found")
			},
		}, nil)

		rec := doRequest(t, failing, "GET", "/api/runs/nope", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleStep(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	rec := doRequest(t, server, "POST", "/api/runs/ab12/step", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result service.StepResult
	decodeBody(t, rec, &result)
	if result.Move != "forward" {
		t.Errorf("Expected move 'forward', got %q", result.Move)
	}
	if !result.Moved {
		t.Error("Expected moved flag set")
	}
}

func TestHandleStepMany(t *testing.T) {
	server := NewServer(&MockGameService{
		StepManyFunc: func(ctx context.Context, runID string, maxSteps int) (*service.BulkStepResult, error) {
			if maxSteps != 10 {
				t.Errorf("Expected 10 steps requested, got %d", maxSteps)
			}
			return &service.BulkStepResult{Requested: maxSteps, Executed: 4, StoppedReason: "at_end", State: testState()}, nil
		},
	}, nil)

	rec := doRequest(t, server, "POST", "/api/runs/ab12/steps", map[string]int{"count": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var result service.BulkStepResult
	decodeBody(t, rec, &result)
	if result.Executed != 4 || result.StoppedReason != "at_end" {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestHandleCommand(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	t.Run("valid", func(t *testing.T) {
		rec := doRequest(t, server, "POST", "/api/runs/ab12/command", map[string]string{"direction": "left"})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var result service.StepResult
		decodeBody(t, rec, &result)
		if result.Move != "left" {
			t.Errorf("Expected move 'left', got %q", result.Move)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/runs/ab12/command", bytes.NewBufferString("{notjson"))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		failing := NewServer(&MockGameService{
			CommandFunc: func(ctx context.Context, runID, direction string) (*service.StepResult, error) {
				return nil, errors.New("unknown move")
			},
		}, nil)

		rec := doRequest(t, failing, "POST", "/api/runs/ab12/command", map[string]string{"direction": "sideways"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleReset(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	rec := doRequest(t, server, "POST", "/api/runs/ab12/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Message string              `json:"message"`
		State   *service.BoardState `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if resp.State == nil || resp.State.Size != 3 {
		t.Error("Expected board state in reset response")
	}
}

func TestHandleObstacles(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		server := NewServer(&MockGameService{
			SetObstacleFunc: func(ctx context.Context, runID string, x, y int) (*service.BoardState, error) {
				if x != 2 || y != 0 {
					t.Errorf("Expected (2, 0), got (%d, %d)", x, y)
				}
				return testState(), nil
			},
		}, nil)

		rec := doRequest(t, server, "PUT", "/api/runs/ab12/obstacles", map[string]int{"x": 2, "y": 0})
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("clear", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		rec := doRequest(t, server, "DELETE", "/api/runs/ab12/obstacles", map[string]int{"x": 2, "y": 0})
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("protected cell is a conflict", func(t *testing.T) {
		server := NewServer(&MockGameService{
			SetObstacleFunc: func(ctx context.Context, runID string, x, y int) (*service.BoardState, error) {
				return nil, &board.ProtectedCellError{Which: "start"}
			},
		}, nil)

		rec := doRequest(t, server, "PUT", "/api/runs/ab12/obstacles", map[string]int{"x": 0, "y": 0})
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})

	t.Run("out of bounds is a bad request", func(t *testing.T) {
		server := NewServer(&MockGameService{
			SetObstacleFunc: func(ctx context.Context, runID string, x, y int) (*service.BoardState, error) {
				return nil, board.ErrOutOfBounds
			},
		}, nil)

		rec := doRequest(t, server, "PUT", "/api/runs/ab12/obstacles", map[string]int{"x": 9, "y": 9})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestHandlePrograms(t *testing.T) {
	t.Run("set program", func(t *testing.T) {
		server := NewServer(&MockGameService{
			SetProgramFunc: func(ctx context.Context, runID, program string) error {
				if program != "script:scripts/demo.star" {
					t.Errorf("Unexpected program %q", program)
				}
				return nil
			},
		}, nil)

		rec := doRequest(t, server, "PUT", "/api/runs/ab12/program", map[string]string{"program": "script:scripts/demo.star"})
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("reload program", func(t *testing.T) {
		server := NewServer(&MockGameService{}, nil)
		rec := doRequest(t, server, "POST", "/api/runs/ab12/program/reload", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("reload failure", func(t *testing.T) {
		server := NewServer(&MockGameService{
			ReloadProgramFunc: func(ctx context.Context, runID string) error {
				return errors.New("syntax error")
			},
		}, nil)

		rec := doRequest(t, server, "POST", "/api/runs/ab12/program/reload", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleBoards(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	t.Run("list", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/boards", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var boards []*service.BoardInfo
		decodeBody(t, rec, &boards)
		if len(boards) != 1 || boards[0].Name != "classic" {
			t.Errorf("Unexpected board list: %+v", boards)
		}
	})

	t.Run("get source", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/api/boards/classic", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp map[string]string
		decodeBody(t, rec, &resp)
		if resp["name"] != "classic" || resp["source"] == "" {
			t.Errorf("Unexpected board response: %v", resp)
		}
	})

	t.Run("save", func(t *testing.T) {
		rec := doRequest(t, server, "PUT", "/api/boards/custom", map[string]string{"source": "START END\n0 0\n"})
		if rec.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d", rec.Code)
		}
	})

	t.Run("save invalid", func(t *testing.T) {
		failing := NewServer(&MockGameService{
			SaveBoardFunc: func(ctx context.Context, name, source string) error {
				return errors.New("invalid board source")
			},
		}, nil)

		rec := doRequest(t, failing, "PUT", "/api/boards/bad", map[string]string{"source": "garbage"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	rec := doRequest(t, server, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", resp)
	}
}

func TestHandleWebSocketValidation(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	t.Run("missing run param", func(t *testing.T) {
		rec := doRequest(t, server, "GET", "/ws", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		failing := NewServer(&MockGameService{
			GetRunFunc: func(ctx context.Context, runID string) (*service.RunInfo, error) {
				return nil, errors.New("run not found")
			},
		}, nil)

		rec := doRequest(t, failing, "GET", "/ws?run=nope", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}
