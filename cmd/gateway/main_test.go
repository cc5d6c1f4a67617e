package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stillwaterhq/stillwater/internal/config"
	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

func newTestRepo(t *testing.T, handler http.Handler) *database.Repository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := database.NewClient(database.Config{
		URL:        srv.URL,
		ServiceKey: "service-key",
		Retry:      &database.RetryConfig{},
	})
	if err != nil {
		t.Fatalf("database client: %v", err)
	}
	return database.NewRepository(client)
}

func TestStartTaskNotifier_WebsocketMode(t *testing.T) {
	upgrader := websocket.Upgrader{}
	joined := make(chan string, 1)

	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var join struct {
			Topic string `json:"topic"`
			Event string `json:"event"`
		}
		if err := conn.ReadJSON(&join); err != nil {
			t.Errorf("read join: %v", err)
			return
		}
		joined <- join.Topic

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer wsSrv.Close()

	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("websocket mode must not poll the REST backend")
	}))

	cfg := &config.Config{}
	cfg.Supabase.URL = wsSrv.URL
	cfg.Supabase.AnonKey = "anon-key"
	cfg.Realtime.Mode = config.RealtimeModeWebsocket
	cfg.Realtime.PollInterval = 5 * time.Millisecond

	stop := startTaskNotifier(context.Background(), cfg, repo, logging.New("gateway-test"))
	defer stop()

	select {
	case topic := <-joined:
		if topic != "realtime:public:tasks" {
			t.Fatalf("joined topic = %q, want realtime:public:tasks", topic)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no channel join within 2s")
	}
}

func TestStartTaskNotifier_FallsBackToPolling(t *testing.T) {
	var polls atomic.Int32
	repo := newTestRepo(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/tasks" {
			polls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))

	cfg := &config.Config{}
	cfg.Supabase.URL = "http://127.0.0.1:1"
	cfg.Supabase.AnonKey = "anon-key"
	cfg.Realtime.Mode = config.RealtimeModeWebsocket
	cfg.Realtime.PollInterval = 5 * time.Millisecond

	stop := startTaskNotifier(context.Background(), cfg, repo, logging.New("gateway-test"))
	defer stop()

	deadline := time.After(2 * time.Second)
	for polls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("fallback poller never queried the REST backend")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

type stubExpirer struct {
	calls int
	n     int
	err   error
}

func (s *stubExpirer) ExpireStaleInvites(ctx context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

func TestExpireInvitesJob(t *testing.T) {
	logger := logging.New("gateway-test")

	expirer := &stubExpirer{n: 3}
	expireInvitesJob(expirer, logger)()
	if expirer.calls != 1 {
		t.Fatalf("sweep calls = %d, want 1", expirer.calls)
	}

	// A failing sweep logs and returns; it must not panic.
	failing := &stubExpirer{err: errors.New("backend down")}
	expireInvitesJob(failing, logger)()
	if failing.calls != 1 {
		t.Fatalf("failing sweep calls = %d, want 1", failing.calls)
	}
}
