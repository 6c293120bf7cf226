package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation and returns a function
// restoring the previous one.
func Init(m Monitor) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	if m != nil {
		current = m
	}
	return func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		m := get()
		if _, nop := m.(NopMonitor); nop {
			panic(r)
		}
		func() {
			defer m.Recover()
			panic(r)
		}()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
