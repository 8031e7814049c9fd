package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogBufferAddAndRetrieve(t *testing.T) {
	lb := NewLogBuffer(3)
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Level: "info", Message: "one"})
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Level: "info", Message: "two"})

	entries := lb.GetLogs(false)
	require.Len(t, entries, 2)
	require.Equal(t, "one", entries[0].Message)
	require.Equal(t, "two", entries[1].Message)
}

func TestLogBufferWrapsAtCapacity(t *testing.T) {
	lb := NewLogBuffer(2)
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Message: "a"})
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Message: "b"})
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Message: "c"})

	entries := lb.GetLogs(false)
	require.Len(t, entries, 2)
	require.Equal(t, "b", entries[0].Message)
	require.Equal(t, "c", entries[1].Message)
}

func TestLogBufferGetLogsClear(t *testing.T) {
	lb := NewLogBuffer(5)
	lb.AddEntry(LogEntry{Timestamp: time.Now(), Message: "x"})

	entries := lb.GetLogs(true)
	require.Len(t, entries, 1)
	require.Empty(t, lb.GetLogs(false))
}

func TestLogBufferWriteParsesJSON(t *testing.T) {
	lb := NewLogBuffer(5)
	n, err := lb.Write([]byte(`{"level":"warn","message":"disk nearly full","extra":"field"}`))
	require.NoError(t, err)
	require.Greater(t, n, 0)

	entries := lb.GetLogs(false)
	require.Len(t, entries, 1)
	require.Equal(t, "warn", entries[0].Level)
	require.Equal(t, "disk nearly full", entries[0].Message)
	require.Equal(t, "field", entries[0].Fields["extra"])
}

func TestInitAndGetSugaredLogger(t *testing.T) {
	require.NoError(t, Init(true, 10))
	require.NotNil(t, GetSugaredLogger())
	require.NotNil(t, GetLogBuffer())

	Info("hello from the test suite")
	Sync()

	entries := GetLogBuffer().GetLogs(false)
	require.NotEmpty(t, entries)
}

func TestLogHTTPRequest(t *testing.T) {
	LogHTTPRequest("POST", "/command", 200, 5*time.Millisecond, 128, "127.0.0.1", "curl/8.0", "query-console-time", nil)

	entries := GetHTTPLogBuffer().GetLogs(true)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	require.Equal(t, "info", last.Level)
	require.Equal(t, "query-console-time", last.Fields["command"])
}
