package log

import (
	"fmt"
	"sync"
	"time"
)

// HTTP log buffer is separate from the main log buffer: cmd/vantaged-server's
// gorilla/mux front door logs each decoded command request here instead
// of mixing them into the protocol-level buffer.
var httpLogBuffer *LogBuffer
var httpLogBufferOnce sync.Once

// HTTPLogEntry represents one request to the HTTP command surface.
type HTTPLogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Method     string         `json:"method"`
	Path       string         `json:"path"`
	Status     int            `json:"status"`
	Duration   time.Duration  `json:"duration"`
	Size       int            `json:"size"`
	RemoteAddr string         `json:"remote_addr"`
	UserAgent  string         `json:"user_agent"`
	Command    string         `json:"command,omitempty"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// GetHTTPLogBuffer returns the HTTP log buffer instance, creating it if necessary.
func GetHTTPLogBuffer() *LogBuffer {
	httpLogBufferOnce.Do(func() {
		httpLogBuffer = NewLogBuffer(1000)
	})
	return httpLogBuffer
}

// LogHTTPRequest records one dispatcher request made over HTTP: the
// command name substitutes for the teacher's per-site "website" field,
// since this server fronts a single dispatcher rather than several
// independently configured sites.
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr, userAgent, command string, err error) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   fmt.Sprintf("%s %s %d %v %d bytes", method, path, status, duration, size),
		Fields: map[string]any{
			"method":      method,
			"path":        path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"size":        size,
			"remote_addr": remoteAddr,
			"user_agent":  userAgent,
		},
	}

	if command != "" {
		entry.Fields["command"] = command
	}

	if err != nil {
		entry.Level = "error"
		entry.Fields["error"] = err.Error()
	}

	GetHTTPLogBuffer().AddEntry(entry)
}
