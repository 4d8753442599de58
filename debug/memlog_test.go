package debug

import (
	"bytes"
	"context"
	"log/slog"
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

func TestRead_ReportsLiveHandles(t *testing.T) {
	s, _ := Read(func() int64 { return 3 })
	if s.LiveHandles != 3 {
		t.Fatalf("expected 3 live handles, got %d", s.LiveHandles)
	}
	if s.Goroutines == 0 || s.HeapAlloc == 0 {
		t.Fatalf("expected runtime stats, got %+v", s)
	}
}

func TestStartMemLogger_StopsWithContext(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	ctx, cancel := context.WithCancel(context.Background())
	StartMemLogger(ctx, 5*time.Millisecond, logger, func() int64 { return 1 })
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), `"live_handles":1`) {
		if time.Now().After(deadline) {
			t.Fatalf("no memstats line logged: %s", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
