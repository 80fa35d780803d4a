package conics

import (
	"os"
	"sync"

	kitlog "github.com/go-kit/kit/log"
)

var (
	loggerMu sync.RWMutex
	logger   = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
)

// SetLogger replaces the logger used by the package level maths (anomaly conversion and orbit
// construction). Bodies and systems derive their own loggers from it when they are created.
func SetLogger(l kitlog.Logger) {
	if l == nil {
		l = kitlog.NewNopLogger()
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

// Logger returns the package logger.
func Logger() kitlog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
