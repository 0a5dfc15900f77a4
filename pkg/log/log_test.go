package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/remgo/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("EM run started", OperationKey, OperationLearn, SamplesKey, 50)
	logger.With(ModelNameKey, "Driver").Warn("uniform fallback", RowKey, 3)
	logger.Error("fit failed", fmt.Errorf("boom"), IterationKey, 2)

	require.NotEmpty(t, buffer.String())
	assert.False(t, logger.ContainsMessage("hidden"))
	assert.True(t, logger.ContainsField(OperationKey, OperationLearn))
	assert.True(t, logger.ContainsField(SamplesKey, 50.0))
	assert.True(t, logger.ContainsField(ModelNameKey, "Driver"))
	assert.True(t, logger.ContainsField(ErrAttrKey, "boom"))
	assert.Len(t, logger.EntriesAtLevel(LevelWarn), 1)

	logger.Clear()
	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)

	logger := p.GetLoggerWithName("rem").With(ModelNameKey, "Driver")
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))

	logger.Debug("not written")
	logger.Info("EM run finished", ConvergedKey, true, IterationKey, 12)
	logger.Warn("warning", "warning", errors.NewZeroResponsibilityWarning(4, 2))

	out := buf.String()
	assert.NotContains(t, out, "not written")
	assert.Contains(t, out, `"ml.component":"rem"`)
	assert.Contains(t, out, `"model.name":"Driver"`)
	assert.Contains(t, out, `"em.converged":true`)
	assert.Contains(t, out, `"type":"ZeroResponsibilityWarning"`)

	p.SetLevel(LevelDebug)
	p.GetLogger().Debug("now written")
	assert.Contains(t, buf.String(), "now written")
}

func TestSetupLoggerWithWriter(t *testing.T) {
	prevDefault := slog.Default()
	defer func() {
		slog.SetDefault(prevDefault)
		SetLoggerProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))
	}()

	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, slog.LevelInfo)

	GetLoggerWithName("mixture").Error("fit failed", errors.New("all components failed"))

	out := buf.String()
	assert.Contains(t, out, `"severity":"ERROR"`)
	assert.Contains(t, out, `"message":"fit failed"`)
	assert.Contains(t, out, `"ml.component":"mixture"`)
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}
