// Package debug provides the leak diagnostics logger enabled when config.Debug is true.
// It correlates process RSS and Go heap growth with the number of live image handles
// and goroutines, so unreleased handles or stuck detect calls show up over a session.
package debug

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// Sample is one diagnostics reading.
type Sample struct {
	Goroutines  uint64
	HeapAlloc   uint64
	HeapInuse   uint64
	StackInuse  uint64
	NumGC       uint32
	RSS         uint64
	LiveHandles int64
}

// Read collects a sample. live may be nil.
func Read(live func() int64) (Sample, error) {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Sample{
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		StackInuse: ms.StackInuse,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	}
	if live != nil {
		s.LiveHandles = live()
	}
	rss, err := processRSS()
	s.RSS = rss
	return s, err
}

// StartMemLogger logs a sample every interval until ctx is done.
// Failures to query RSS are logged once and suppressed.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, live func() int64) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s, err := Read(live)
			if err != nil && !rssErrLogged {
				logger.Warn("memlog: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("memstats",
				slog.Uint64("goroutines", s.Goroutines),
				slog.Uint64("heap_alloc", s.HeapAlloc),
				slog.Uint64("heap_inuse", s.HeapInuse),
				slog.Uint64("stack_inuse", s.StackInuse),
				slog.Uint64("rss", s.RSS),
				slog.Uint64("num_gc", uint64(s.NumGC)),
				slog.Int64("live_handles", s.LiveHandles),
			)
		}
	}()
}
