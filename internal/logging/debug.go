// +build debug

package logging

// NewLogger returns a new logger with default options.
func NewLogger() *Logger {
	return NewDevelopmentLogger()
}

// NewFileLogger returns a new logger and also writes the log output to files.
func NewFileLogger(files ...string) *Logger {
	return NewDevelopmentLogger(files...)
}
