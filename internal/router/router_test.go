package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"juststart/internal/config"
	"juststart/internal/db"
	"juststart/internal/handler"
	"juststart/internal/model"
	"juststart/internal/notify"
	"juststart/internal/repository"
	"juststart/internal/router"
	"juststart/internal/service"
)

type stateEnvelope struct {
	State model.TimerState `json:"state"`
}

type historyEnvelope struct {
	Phases []model.PhaseRecord `json:"phases"`
}

type statusEnvelope struct {
	Status notify.Status `json:"status"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// idleScheduler never fires, so phases only end when a test says so.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) service.Timer { return idleTimer{} }

type testServer struct {
	engine http.Handler
	svc    *service.PomodoroService
	store  *repository.StateRepository
}

func TestToggleAndState(t *testing.T) {
	server := setupTestServer(t, "")

	state := getState(t, server.engine, "")
	if state.Status != model.StatusPaused || state.Phase != model.PhaseWork || state.TimeLeft != 1500 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	status, body := requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/toggle", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on toggle, got %d: %s", status, string(body))
	}
	var toggled stateEnvelope
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatalf("unmarshal toggle response: %v", err)
	}
	if toggled.State.Status != model.StatusRunning || toggled.State.EndsAt == nil {
		t.Fatalf("expected running state with end time, got %+v", toggled.State)
	}

	status, body = requestJSON(t, server.engine, http.MethodGet, "/api/pomodoro/status", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on status, got %d", status)
	}
	var board statusEnvelope
	if err := json.Unmarshal(body, &board); err != nil {
		t.Fatalf("unmarshal status response: %v", err)
	}
	if board.Status.AppStatus != "Timer toggled" {
		t.Fatalf("unexpected app status: %q", board.Status.AppStatus)
	}
}

func TestSkipErrors(t *testing.T) {
	ctx := context.Background()
	server := setupTestServer(t, "")

	status, body := requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/skip", "", map[string]int{"phases": 1})
	assertAPIError(t, status, body, http.StatusForbidden, "skip_not_enabled")

	if err := server.store.SetSkipEnabled(ctx, true); err != nil {
		t.Fatalf("enable skip: %v", err)
	}
	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/skip", "", nil)
	assertAPIError(t, status, body, http.StatusBadRequest, "phase_count_required")

	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/skip", "", map[string]int{"phases": 0})
	assertAPIError(t, status, body, http.StatusBadRequest, "invalid_phase_count")

	server.svc.Restore(model.Snapshot{PomodoroCycle: 7, Phase: model.PhaseWork, TimeLeft: 1500, WorkCount: 3}.Partial())
	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/skip", "", map[string]int{"phases": 1})
	assertAPIError(t, status, body, http.StatusForbidden, "long_break_skip_not_allowed")

	req := httptest.NewRequest(http.MethodPost, "/api/pomodoro/skip", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.engine.ServeHTTP(recorder, req)
	assertAPIError(t, recorder.Code, recorder.Body.Bytes(), http.StatusBadRequest, "invalid_json")
}

func TestSkipRestWithEmptyBody(t *testing.T) {
	server := setupTestServer(t, "")
	server.svc.Restore(model.Snapshot{PomodoroCycle: 2, Phase: model.PhaseShortRest, TimeLeft: 200, WorkCount: 1}.Partial())

	status, body := requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/skip", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on skip, got %d: %s", status, string(body))
	}
	var resp stateEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal skip response: %v", err)
	}
	if resp.State.Phase != model.PhaseWork || resp.State.Status != model.StatusRunning || resp.State.WorkCount != 1 {
		t.Fatalf("unexpected state after skip: %+v", resp.State)
	}

	status, body = requestJSON(t, server.engine, http.MethodGet, "/api/pomodoro/history?limit=10", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on history, got %d", status)
	}
	var history historyEnvelope
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Phases) != 1 || history.Phases[0].Outcome != model.HistorySkipped || history.Phases[0].Phase != model.PhaseShortRest {
		t.Fatalf("expected one skipped short rest, got %+v", history.Phases)
	}
}

func TestResetAndLocation(t *testing.T) {
	server := setupTestServer(t, "")
	requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/toggle", "", nil)

	status, body := requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/reset", "", map[string]bool{"atWork": true})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d: %s", status, string(body))
	}
	state := getState(t, server.engine, "")
	if state.Status != model.StatusPaused || !state.AtWork || state.Location != "work" {
		t.Fatalf("unexpected state after reset: %+v", state)
	}

	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/location", "", map[string]string{"location": "h"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on location, got %d: %s", status, string(body))
	}
	state = getState(t, server.engine, "")
	if state.Status != model.StatusRunning || state.AtWork || state.Location != "home" {
		t.Fatalf("unexpected state after location change: %+v", state)
	}

	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/pomodoro/location", "", map[string]string{})
	assertAPIError(t, status, body, http.StatusBadRequest, "invalid_location")
}

func TestAuthDisabledTokenEndpoint(t *testing.T) {
	server := setupTestServer(t, "")
	status, body := requestJSON(t, server.engine, http.MethodPost, "/api/auth/token", "", map[string]string{"passphrase": "x"})
	assertAPIError(t, status, body, http.StatusNotFound, "auth_disabled")
}

func TestAuthRequiredWithPassphrase(t *testing.T) {
	server := setupTestServer(t, "deep-focus")

	status, body := requestJSON(t, server.engine, http.MethodGet, "/api/pomodoro/state", "", nil)
	assertAPIError(t, status, body, http.StatusUnauthorized, "unauthorized")

	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/auth/token", "", map[string]string{"passphrase": "wrong"})
	assertAPIError(t, status, body, http.StatusUnauthorized, "unauthorized")

	status, body = requestJSON(t, server.engine, http.MethodPost, "/api/auth/token", "", map[string]string{"passphrase": "deep-focus"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on token, got %d: %s", status, string(body))
	}
	var token service.TokenResult
	if err := json.Unmarshal(body, &token); err != nil {
		t.Fatalf("unmarshal token response: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected a token")
	}

	getState(t, server.engine, token.Token)

	status, _ = requestJSON(t, server.engine, http.MethodGet, "/api/pomodoro/status?token="+token.Token, "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected query token to be accepted, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupTestServer(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/token", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	server.engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestServer(t *testing.T, passphrase string) testServer {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := db.Migrate(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	board := notify.NewStatusBoard()
	hub := notify.NewHub([]string{"http://localhost:5173"})
	stateRepo := repository.NewStateRepository(database)
	historyRepo := repository.NewHistoryRepository(database)

	authService, err := service.NewAuthService(passphrase, "test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	pomodoroService := service.NewPomodoroService(
		stateRepo,
		config.NewStaticProvider(config.DefaultSettings()),
		service.WithNotifier(notify.Multi{board, hub}),
		service.WithScheduler(idleScheduler{}),
		service.WithHistory(historyRepo),
	)

	authHandler := handler.NewAuthHandler(authService)
	pomodoroHandler := handler.NewPomodoroHandler(pomodoroService, board, hub)

	return testServer{
		engine: router.New(authService, authHandler, pomodoroHandler, []string{"http://localhost:5173"}),
		svc:    pomodoroService,
		store:  stateRepo,
	}
}

func getState(t *testing.T, server http.Handler, token string) model.TimerState {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/pomodoro/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	var stateResp stateEnvelope
	if err := json.Unmarshal(body, &stateResp); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	return stateResp.State
}

func assertAPIError(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(body))
	}
	var resp apiErrorEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Error.Code != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, resp.Error.Code)
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
