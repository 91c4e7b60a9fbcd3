// Package logger is a thin leveled wrapper over the standard log package.
// The engine's tick logging is verbose, so Debugf is gated behind an
// explicit opt-in.
package logger

import (
	"log"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// Init sets logging flags and the debug gate (called once from main).
func Init(debug bool) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	debugEnabled.Store(debug)
}

func Infof(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

func Warnf(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

func Errorf(format string, v ...any) {
	log.Printf("[ERROR] "+format, v...)
}

func Debugf(format string, v ...any) {
	if !debugEnabled.Load() {
		return
	}
	log.Printf("[DEBUG] "+format, v...)
}

func Fatalf(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}
