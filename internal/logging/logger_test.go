package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"console warn", Config{Level: "WARN", Format: "console"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger(Config{Level: "warn", Format: "json"})
	require.NoError(t, err)

	assert.False(t, logger.Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Enabled(zapcore.WarnLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(Config{Format: "yaml"})
	assert.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithRunID(context.Background(), "run-123")

	logger.Info(ctx, "conversion started", zap.String("root", "/w"))

	entries := logger.FilterMessage("conversion started").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-123", fields["run_id"])
	assert.Equal(t, "/w", fields["root"])
}

func TestLogger_NoRunID(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
	assert.Equal(t, "", RunIDFromContext(context.Background()))
}

func TestTestLogger_Assertions(t *testing.T) {
	logger := NewTestLogger()
	logger.Named("index").Warn(context.Background(), "duplicate project name")

	logger.AssertLogged(t, zapcore.WarnLevel, "duplicate project")
	logger.AssertNotLogged(t, zapcore.ErrorLevel, "duplicate project")
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error(context.Background(), "discarded")
	assert.NoError(t, logger.Sync())
}
