// Package log holds the package-level default logger used by components
// that are not constructed with an explicit logger (policy.WithLogger).
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
)

// Default returns the process-wide fallback logger, a no-op logger until
// SetDefault is called.
func Default() *zap.Logger {
	loggerOnce.Do(func() {
		mu.Lock()
		if logger == nil {
			logger = zap.NewNop()
		}
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetDefault overrides the fallback logger returned by Default.
func SetDefault(l *zap.Logger) {
	loggerOnce.Do(func() {})
	mu.Lock()
	logger = l
	mu.Unlock()
}
