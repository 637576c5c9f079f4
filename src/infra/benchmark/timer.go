// Package benchmark measures named sections of work.
//
// Each namespace holds one record. Starting a namespace again overwrites
// its record, so namespaces are meant for sequential reuse.
package benchmark

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dbkit/src/core/domain"
	"dbkit/src/core/ports"
)

var _ ports.Timer = (*Timer)(nil)

// Timer records execution time and, optionally, heap usage per namespace.
type Timer struct {
	mu      sync.Mutex
	records map[string]domain.BenchmarkRecord

	memory bool
	now    func() time.Time
}

// Option configures a Timer.
type Option func(*Timer)

// WithMemory enables heap sampling on start and end. Sampling reads
// runtime.MemStats, which briefly stops the world.
func WithMemory(enabled bool) Option {
	return func(t *Timer) { t.memory = enabled }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// New creates a Timer.
func New(opts ...Option) *Timer {
	t := &Timer{
		records: make(map[string]domain.BenchmarkRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens a record for namespace, replacing any previous one.
func (t *Timer) Start(namespace string) {
	rec := domain.BenchmarkRecord{Namespace: namespace}
	if t.memory {
		rec.StartMemory, _ = readMemory()
	}
	rec.StartTime = t.now()

	t.mu.Lock()
	t.records[namespace] = rec
	t.mu.Unlock()
}

// End closes the record of namespace. Unknown namespaces are ignored.
func (t *Timer) End(namespace string) {
	end := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[namespace]
	if !ok {
		return
	}
	rec.EndTime = end
	rec.ExecutionTime = end.Sub(rec.StartTime)
	if t.memory {
		rec.EndMemory, rec.MemoryPeak = readMemory()
		rec.MemoryUsage = int64(rec.EndMemory) - int64(rec.StartMemory)
	}
	t.records[namespace] = rec
}

// Result returns the record of namespace.
func (t *Timer) Result(namespace string) (domain.BenchmarkRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[namespace]
	return rec, ok
}

// Results returns a copy of every record.
func (t *Timer) Results() map[string]domain.BenchmarkRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]domain.BenchmarkRecord, len(t.records))
	for k, v := range t.records {
		out[k] = v
	}
	return out
}

func readMemory() (heap, peak uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc, ms.Sys
}

var printer = message.NewPrinter(language.English)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FormatTime renders d in seconds with four decimals, e.g. "0.0123sec".
func FormatTime(d time.Duration) string {
	return fmt.Sprintf("%.4fsec", d.Seconds())
}

// FormatSize renders a byte count with a 1024-based unit. Whole bytes are
// printed without decimals, larger units with three. The sign is kept.
func FormatSize(size int64) string {
	sign := ""
	if size < 0 {
		sign = "-"
	}
	v := math.Abs(float64(size))

	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}

	if unit == 0 {
		return sign + printer.Sprintf("%d", int64(v)) + sizeUnits[unit]
	}
	return sign + printer.Sprintf("%.3f", v) + sizeUnits[unit]
}
