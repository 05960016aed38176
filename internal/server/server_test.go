package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer_Routes(t *testing.T) {
	dashboard := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashboard"))
	}
	srv := NewServer(services.NewAnalytics(nil), config.DisplayConfig{USDRate: 950, TopN: 12}, testLogger(), &TemplateHandlers{Dashboard: dashboard})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/options", http.StatusOK},
		{"GET", "/api/groups?by=product", http.StatusOK},
		{"POST", "/admin/reload", http.StatusServiceUnavailable},
		{"GET", "/index.html", http.StatusNotFound},
		{"POST", "/api/export.csv", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func startGraceful(t *testing.T, gs *GracefulServer) (context.CancelFunc, <-chan error, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()
	return cancel, done, "http://" + ln.Addr().String()
}

func TestGracefulServer_ShutdownRunsHooksInReverse(t *testing.T) {
	httpServer := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})}
	gs := NewGracefulServer(httpServer, testLogger(), 5*time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	gs.RegisterShutdownHook(record("cache"))
	gs.RegisterShutdownHook(record("analytics"))

	cancel, done, url := startGraceful(t, gs)

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if strings.Join(order, ",") != "analytics,cache" {
		t.Errorf("hook order = %v, want [analytics cache]", order)
	}
}

func TestGracefulServer_HookErrorsAreJoined(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), time.Second)

	errFirst := errors.New("first")
	errSecond := errors.New("second")
	ran := 0
	gs.RegisterShutdownHook(func(context.Context) error { ran++; return errFirst })
	gs.RegisterShutdownHook(func(context.Context) error { ran++; return errSecond })

	cancel, done, _ := startGraceful(t, gs)
	cancel()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if ran != 2 {
		t.Errorf("ran %d hooks, want 2", ran)
	}
	if !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
		t.Errorf("Serve() error = %v, want both hook errors", err)
	}
}

func TestGracefulServer_HookTimeout(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), time.Second)

	gs.RegisterShutdownHook(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cancel, done, _ := startGraceful(t, gs)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v, want deadline exceeded", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("blocked hook was not bounded by the shutdown timeout")
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "256.0.0.1:bad"}, testLogger(), time.Second)

	if err := gs.ListenAndServe(); err == nil {
		t.Fatal("ListenAndServe() should fail for an invalid address")
	}
}
