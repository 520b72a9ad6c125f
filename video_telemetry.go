package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Telemetry accumulates per-phase timings and per-cycle outcome counters
// since the last report. Diagnostic only: removing it changes nothing
// observable except the printed summaries and the status bar. Counters are
// atomics so the status bar can read them from the display goroutine while
// the render loop writes them.
type Telemetry struct {
	snapshotUS atomic.Int64
	detectUS   atomic.Int64
	renderUS   atomic.Int64
	pushUS     atomic.Int64

	fullCount    atomic.Uint32
	partialCount atomic.Uint32
	skipCount    atomic.Uint32

	lastReport time.Time // touched only by the render loop
}

func NewTelemetry() *Telemetry {
	return &Telemetry{lastReport: time.Now()}
}

func (t *Telemetry) AddSnapshot(d time.Duration) { t.snapshotUS.Add(d.Microseconds()) }
func (t *Telemetry) AddDetect(d time.Duration)   { t.detectUS.Add(d.Microseconds()) }
func (t *Telemetry) AddRender(d time.Duration)   { t.renderUS.Add(d.Microseconds()) }
func (t *Telemetry) AddPush(d time.Duration)     { t.pushUS.Add(d.Microseconds()) }

func (t *Telemetry) CountFull()    { t.fullCount.Add(1) }
func (t *Telemetry) CountPartial() { t.partialCount.Add(1) }
func (t *Telemetry) CountSkip()    { t.skipCount.Add(1) }

// Frames returns the number of cycles recorded since the last report.
func (t *Telemetry) Frames() uint32 {
	return t.fullCount.Load() + t.partialCount.Load() + t.skipCount.Load()
}

// MaybeReport prints a summary and resets the counters once per report
// interval. Called from the render loop at the end of each cycle;
// best-effort, never blocks rendering on anything but the print itself.
func (t *Telemetry) MaybeReport(now time.Time) bool {
	if now.Sub(t.lastReport) < PERF_REPORT_INTERVAL {
		return false
	}
	t.lastReport = now

	frames := t.Frames()
	if frames > 0 {
		fmt.Printf("[VIDEO PERF] frames=%d (full=%d partial=%d skip=%d)\n",
			frames, t.fullCount.Load(), t.partialCount.Load(), t.skipCount.Load())
		fmt.Printf("[VIDEO PERF] avg: snapshot=%dus detect=%dus render=%dus push=%dus\n",
			t.snapshotUS.Load()/int64(frames),
			t.detectUS.Load()/int64(frames),
			t.renderUS.Load()/int64(frames),
			t.pushUS.Load()/int64(frames))
	}

	t.snapshotUS.Store(0)
	t.detectUS.Store(0)
	t.renderUS.Store(0)
	t.pushUS.Store(0)
	t.fullCount.Store(0)
	t.partialCount.Store(0)
	t.skipCount.Store(0)
	return true
}

// StatusLine formats the current interval's counters for the display status
// bar.
func (t *Telemetry) StatusLine() string {
	return fmt.Sprintf("full:%d partial:%d skip:%d",
		t.fullCount.Load(), t.partialCount.Load(), t.skipCount.Load())
}
