package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Packer hooks
	p := NoopPackerHooks{}
	p.OnPackStart(ctx, 12, "exhaustive")
	p.OnSheetOpened(ctx, 0)
	p.OnPlacement(ctx, "sticker-1", 0, 90)
	p.OnPackComplete(ctx, 12, 0, time.Second, nil)

	// Job hooks
	j := NoopJobHooks{}
	j.OnJobStart(ctx, "job-1", 5000)
	j.OnJobComplete(ctx, "job-1", "completed", time.Second, nil)

	// Store hooks
	s := NoopStoreHooks{}
	s.OnStoreHit(ctx, "job-1")
	s.OnStoreMiss(ctx, "job-2")
	s.OnStoreSet(ctx, "job-1", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Packer().(NoopPackerHooks); !ok {
		t.Error("Packer() should return NoopPackerHooks by default")
	}
	if _, ok := Job().(NoopJobHooks); !ok {
		t.Error("Job() should return NoopJobHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	// Set custom hooks
	customPacker := &testPackerHooks{}
	SetPackerHooks(customPacker)
	if Packer() != customPacker {
		t.Error("SetPackerHooks should set custom hooks")
	}

	customJob := &testJobHooks{}
	SetJobHooks(customJob)
	if Job() != customJob {
		t.Error("SetJobHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	// Reset restores noops
	Reset()
	if _, ok := Packer().(NoopPackerHooks); !ok {
		t.Error("Reset should restore NoopPackerHooks")
	}
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	Reset()

	custom := &testPackerHooks{}
	SetPackerHooks(custom)
	SetPackerHooks(nil)
	if Packer() != custom {
		t.Error("SetPackerHooks(nil) should not replace registered hooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testPackerHooks{}
	SetPackerHooks(custom)

	ctx := context.Background()
	Packer().OnPackStart(ctx, 3, "exact-count")
	Packer().OnSheetOpened(ctx, 0)
	Packer().OnPlacement(ctx, "a", 0, 0)
	Packer().OnPlacement(ctx, "b", 0, 90)
	Packer().OnPackComplete(ctx, 2, 1, time.Millisecond, nil)

	if custom.starts != 1 || custom.sheets != 1 || custom.placements != 2 || custom.completes != 1 {
		t.Errorf("event counts = %+v", custom)
	}
}

// testPackerHooks counts received events.
type testPackerHooks struct {
	starts, sheets, placements, completes int
}

func (h *testPackerHooks) OnPackStart(context.Context, int, string)          { h.starts++ }
func (h *testPackerHooks) OnSheetOpened(context.Context, int)                { h.sheets++ }
func (h *testPackerHooks) OnPlacement(context.Context, string, int, float64) { h.placements++ }
func (h *testPackerHooks) OnPackComplete(context.Context, int, int, time.Duration, error) {
	h.completes++
}

type testJobHooks struct{}

func (testJobHooks) OnJobStart(context.Context, string, float64)                         {}
func (testJobHooks) OnJobComplete(context.Context, string, string, time.Duration, error) {}

type testStoreHooks struct{}

func (testStoreHooks) OnStoreHit(context.Context, string)      {}
func (testStoreHooks) OnStoreMiss(context.Context, string)     {}
func (testStoreHooks) OnStoreSet(context.Context, string, int) {}
