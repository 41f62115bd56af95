package matcher

import (
	"io"
	"log"
)

var debugLogger *log.Logger

// SetDebugLogger installs a logger that receives per-frame matching traces.
// Pass nil to disable them.
func SetDebugLogger(w io.Writer) {
	if w == nil {
		debugLogger = nil
		return
	}
	debugLogger = log.New(w, "matcher: ", log.LstdFlags|log.Lmicroseconds)
}

func debugf(format string, args ...interface{}) {
	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}
