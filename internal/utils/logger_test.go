package utils

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected logrus.Level
	}{
		{name: "debug", input: "debug", expected: logrus.DebugLevel},
		{name: "info", input: "info", expected: logrus.InfoLevel},
		{name: "error", input: "error", expected: logrus.ErrorLevel},
		{name: "mixed case", input: "WARN", expected: logrus.WarnLevel},
		{name: "unknown falls back", input: "verbose", expected: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestLogEntryCarriesRequestID(t *testing.T) {
	logger := NewDiscardLogger()

	entry := LogEntry(WithRequestID(context.Background(), "req-123"), logger)
	assert.Equal(t, "req-123", entry.Data["reqid"])

	entry = LogEntry(context.Background(), logger)
	assert.NotContains(t, entry.Data, "reqid")
}
