package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/edgard/middleman/internal/bot/tasks"
	"github.com/edgard/middleman/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStart(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":  {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled": {Enabled: false, Schedule: "0 0 4 * * *"},
		"unknown":  {Enabled: true, Schedule: "0 0 4 * * *"},
	}}
	registry := map[string]tasks.ScheduledTaskFunc{"enabled": noop, "disabled": noop}

	s, err := NewScheduler(discardLogger(), cfg, registry)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	n, err := s.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Start() scheduled %d jobs, want 1", n)
	}
	if _, err := s.Start(); !errors.Is(err, ErrSchedulerRunning) {
		t.Errorf("second Start() error = %v, want ErrSchedulerRunning", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestOrchestratorStopsOnCancel(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), config.SchedulerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	o := NewOrchestrator(discardLogger(), server, nil, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestOrchestratorReportsListenError(t *testing.T) {
	t.Parallel()

	server := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}
	o := NewOrchestrator(discardLogger(), server, nil, nil)

	if err := o.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want listen failure")
	}
}
