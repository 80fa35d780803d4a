package main

import (
	kitlog "github.com/go-kit/kit/log"
)

// levelFilter drops the debug entries.
func levelFilter(next kitlog.Logger) kitlog.Logger {
	return kitlog.LoggerFunc(func(keyvals ...interface{}) error {
		for i := 0; i+1 < len(keyvals); i += 2 {
			if keyvals[i] == "level" && keyvals[i+1] == "debug" {
				return nil
			}
		}
		return next.Log(keyvals...)
	})
}
