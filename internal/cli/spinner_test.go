package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDraws(t *testing.T) {
	var buf syncBuffer
	s := newSpinnerTo(context.Background(), &buf, "Converting...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("Rendering %d frames...", 3)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := buf.String()
	if !strings.Contains(got, "Converting...") || !strings.Contains(got, "Rendering 3 frames...") {
		t.Errorf("spinner output = %q", got)
	}
	if s.Cancelled() {
		t.Error("Stop should not mark the spinner cancelled")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing...")
	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing...")
	s.Stop()
}

func TestSpinnerStopWithResult(t *testing.T) {
	var lines bytes.Buffer
	swapOut(t, &lines)

	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing...")
	s.Start()
	s.StopWithSuccess("Done")
	s2 := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing...")
	s2.Start()
	s2.StopWithError("Failed")

	got := lines.String()
	if !strings.Contains(got, "Done") || !strings.Contains(got, "Failed") {
		t.Errorf("status lines = %q", got)
	}
}

// swapOut redirects status output to w for the duration of the test.
func swapOut(t *testing.T, w *bytes.Buffer) {
	t.Helper()
	prev := out
	out = w
	t.Cleanup(func() { out = prev })
}
