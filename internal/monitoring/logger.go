// Package monitoring carries the process-wide diagnostic logger.
package monitoring

import "log"

// Logf emits a diagnostic line. It defaults to log.Printf and can be swapped
// out with SetLogger, which tests use to capture or silence output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as the package logger. A nil f mutes logging.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
