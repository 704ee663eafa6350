package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewCoreRoutesByLevel(t *testing.T) {
	tests := []struct {
		name          string
		debug         bool
		wantStdout    []string
		notWantStdout []string
	}{
		{name: "production", debug: false, wantStdout: []string{"info entry"}, notWantStdout: []string{"debug entry", "warn entry"}},
		{name: "debug", debug: true, wantStdout: []string{"debug entry", "info entry"}, notWantStdout: []string{"warn entry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			log := zap.New(NewCore(tt.debug, zapcore.AddSync(&stdout), zapcore.AddSync(&stderr)))

			log.Debug("debug entry")
			log.Info("info entry")
			log.Warn("warn entry")
			log.Error("error entry")

			for _, msg := range tt.wantStdout {
				assert.Contains(t, stdout.String(), msg)
			}
			for _, msg := range tt.notWantStdout {
				assert.NotContains(t, stdout.String(), msg)
			}
			assert.Contains(t, stderr.String(), "warn entry")
			assert.Contains(t, stderr.String(), "error entry")
			assert.NotContains(t, stderr.String(), "info entry")

			for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
				assert.True(t, strings.HasPrefix(line, "{"), "entries are JSON: %s", line)
			}
		})
	}
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New(false))
	assert.True(t, New(true).Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New(false).Core().Enabled(zapcore.DebugLevel))
}
