package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/memkv/internal/server/httpserver/handler"
	"github.com/yndnr/memkv/internal/telemetry/logger"
	"github.com/yndnr/memkv/internal/telemetry/metric"
)

type fakeStatus struct {
	readyErr error
}

func (s *fakeStatus) Ready() error           { return s.readyErr }
func (s *fakeStatus) ActiveConnections() int { return 2 }
func (s *fakeStatus) Keys() (int, error)     { return 7, nil }

func startAdmin(t *testing.T, h http.Handler) *Server {
	t.Helper()
	s := New("127.0.0.1:0", h, logger.Discard())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func get(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get("http://" + s.Addr().String() + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s body: %v", path, err)
	}
	return resp, string(body)
}

func TestServer_Lifecycle(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler(), logger.Discard())
	if s.Addr() != nil {
		t.Error("Addr() before Start should be nil")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := net.DialTimeout("tcp", s.Addr().String(), time.Second); err == nil {
		t.Error("listener still accepting after Shutdown")
	}
}

func TestServer_BindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	s := New(ln.Addr().String(), http.NotFoundHandler(), logger.Discard())
	if err := s.Start(); err == nil {
		t.Fatal("Start() on a bound port should fail")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler(), logger.Discard())
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start error = %v", err)
	}
}

func TestRouter_Endpoints(t *testing.T) {
	reg := metric.NewRegistry()
	reg.ConnOpened()
	s := startAdmin(t, NewRouter(RouterConfig{
		Status:  &fakeStatus{},
		Metrics: reg,
		Logger:  logger.Discard(),
	}))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/health", http.StatusOK, `"status":"healthy"`},
		{"/ready", http.StatusOK, `"keys":7`},
		{"/version", http.StatusOK, `"version"`},
		{"/metrics", http.StatusOK, "memkv_connections_active 1"},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, s, tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body = %s, want substring %q", body, tt.wantBody)
			}
			if resp.Header.Get(handler.RequestIDHeader) == "" {
				t.Error("response has no request ID")
			}
		})
	}
}

func TestRouter_NotReady(t *testing.T) {
	s := startAdmin(t, NewRouter(RouterConfig{
		Status: &fakeStatus{readyErr: errors.New("store poisoned")},
		Logger: logger.Discard(),
	}))

	resp, body := get(t, s, "/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var r handler.Response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if r.Code != "NOT_READY" || r.Message != "store poisoned" {
		t.Errorf("response = %+v", r)
	}
}

func TestRouter_WithoutMetrics(t *testing.T) {
	s := startAdmin(t, NewRouter(RouterConfig{Status: &fakeStatus{}}))

	resp, _ := get(t, s, "/metrics")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", resp.StatusCode)
	}
}
