package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

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

func TestSpinnerDrawsAfterDelay(t *testing.T) {
	var out syncBuffer
	s := newSpinnerWithContext(context.Background(), "Rendering...")
	s.out = &out
	s.Start()
	time.Sleep(spinnerDelay + 100*time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Rendering...") {
		t.Errorf("spinner output %q does not contain the message", out.String())
	}
}

func TestSpinnerQuickStopIsSilent(t *testing.T) {
	var out syncBuffer
	s := newSpinnerWithContext(context.Background(), "Rendering...")
	s.out = &out
	s.Start()
	s.Stop()

	if out.String() != "" {
		t.Errorf("spinner stopped before the delay wrote %q", out.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.out = &syncBuffer{}
	s.Start()
	cancel()

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Testing idempotent stop...")
	s.out = &syncBuffer{}
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessages(t *testing.T) {
	var out bytes.Buffer
	old := stdout
	stdout = &out
	defer func() { stdout = old }()

	s := newSpinnerWithContext(context.Background(), "Testing...")
	s.out = &syncBuffer{}
	s.Start()
	s.StopWithSuccess("Done!")

	s = newSpinnerWithContext(context.Background(), "Testing...")
	s.out = &syncBuffer{}
	s.Start()
	s.StopWithError("Failed!")

	if !strings.Contains(out.String(), "Done!") || !strings.Contains(out.String(), "Failed!") {
		t.Errorf("status output = %q", out.String())
	}
}
