package job

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/geom"
	"github.com/alexkibler/sticker-nester/pkg/nest"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testOptions() nest.Options {
	return nest.Options{
		Parts: []nest.Part{
			{ID: "a", Outline: geom.Polygon{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}, Quantity: 2},
		},
		SheetWidth:   10,
		SheetHeight:  10,
		PackAllItems: true,
	}
}

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return ctrl
}

// pollUntilTerminal polls the controller until the job leaves its
// pending/running states or the test deadline expires.
func pollUntilTerminal(t *testing.T, ctrl *Controller, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := ctrl.Poll(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if j.Status.Terminal() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", jobID)
	return nil
}

func TestControllerRequiresStore(t *testing.T) {
	_, err := NewController(Config{})
	if err == nil {
		t.Fatal("expected an error for a missing store")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
}

func TestSubmitSynchronous(t *testing.T) {
	// A generous threshold keeps the small request inline.
	ctrl := newTestController(t, Config{AsyncThreshold: 1e9})

	sub, err := ctrl.Submit(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if sub.Async {
		t.Fatal("small request should run synchronously")
	}
	if sub.Result == nil || sub.Result.Stats.PlacedCount != 2 {
		t.Errorf("unexpected result: %+v", sub.Result)
	}
}

func TestSubmitAsynchronous(t *testing.T) {
	// A threshold of 1 forces every request into a background job.
	ctrl := newTestController(t, Config{AsyncThreshold: 1})

	sub, err := ctrl.Submit(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !sub.Async || sub.JobID == "" {
		t.Fatalf("expected an async submission, got %+v", sub)
	}

	j := pollUntilTerminal(t, ctrl, sub.JobID)
	if j.Status != StatusCompleted {
		t.Fatalf("job status = %s (%s), want %s", j.Status, j.Error, StatusCompleted)
	}
	if j.Result == nil || j.Result.Stats.PlacedCount != 2 {
		t.Errorf("unexpected job result: %+v", j.Result)
	}
	if j.StartedAt.IsZero() || j.CompletedAt.IsZero() {
		t.Error("terminal job should carry start and completion timestamps")
	}
}

func TestSubmitRejectsInvalidOptions(t *testing.T) {
	ctrl := newTestController(t, Config{})

	_, err := ctrl.Submit(context.Background(), nest.Options{SheetWidth: -1})
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidConfig {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
}

func TestJobTimeout(t *testing.T) {
	ctrl := newTestController(t, Config{AsyncThreshold: 1, Timeout: time.Nanosecond})

	sub, err := ctrl.Submit(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	j := pollUntilTerminal(t, ctrl, sub.JobID)
	if j.Status != StatusFailed {
		t.Fatalf("job status = %s, want %s", j.Status, StatusFailed)
	}
	if j.ErrorCode != errors.ErrCodeTimeout {
		t.Errorf("error code = %s, want %s", j.ErrorCode, errors.ErrCodeTimeout)
	}
}

func TestPollUnknownJob(t *testing.T) {
	ctrl := newTestController(t, Config{})

	_, err := ctrl.Poll(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.GetCode(err) != errors.ErrCodeJobNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeJobNotFound)
	}
}

func TestCancelUnknownJob(t *testing.T) {
	ctrl := newTestController(t, Config{})

	err := ctrl.Cancel(context.Background(), "missing")
	if errors.GetCode(err) != errors.ErrCodeJobNotFound {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeJobNotFound)
	}
}

func TestCancelTerminalJobIsNoop(t *testing.T) {
	ctrl := newTestController(t, Config{AsyncThreshold: 1})

	sub, err := ctrl.Submit(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	j := pollUntilTerminal(t, ctrl, sub.JobID)

	if err := ctrl.Cancel(context.Background(), sub.JobID); err != nil {
		t.Errorf("cancelling a finished job should be a no-op, got %v", err)
	}
	after, err := ctrl.Poll(context.Background(), sub.JobID)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if after.Status != j.Status {
		t.Errorf("status changed from %s to %s", j.Status, after.Status)
	}
}

func TestCancelWithoutLocalHandle(t *testing.T) {
	// A running record with no in-process cancel handle (e.g. owned by a
	// different instance) is marked cancelled directly in the store.
	store := NewMemoryStore()
	ctrl := newTestController(t, Config{Store: store})

	orphan := testJob("orphan", time.Hour)
	orphan.Status = StatusRunning
	if err := store.Set(context.Background(), orphan); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := ctrl.Cancel(context.Background(), "orphan"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	j, err := ctrl.Poll(context.Background(), "orphan")
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if j.Status != StatusCancelled || j.ErrorCode != errors.ErrCodeCancelled {
		t.Errorf("job = %+v, want cancelled", j)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
