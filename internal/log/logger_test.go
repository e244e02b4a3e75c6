package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(Config{Level: zerolog.InfoLevel, Format: "json", Output: &buf}), ComponentSettlement)

	logger.Info().Str(FieldPeriod, "2025-03").Msg("period closed")

	rec := decode(t, &buf)
	assert.Equal(t, "period closed", rec[zerolog.MessageFieldName])
	assert.Equal(t, "info", rec[zerolog.LevelFieldName])
	assert.Equal(t, ComponentSettlement, rec[FieldComponent])
	assert.Equal(t, "2025-03", rec[FieldPeriod])
	assert.Contains(t, rec, zerolog.TimestampFieldName)
}

func TestNew_TextUsesConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(Config{Level: zerolog.WarnLevel, Output: &buf}), ComponentApp)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=")
	assert.Contains(t, buf.String(), ComponentApp)
}

func TestNewWithWriter_LogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	logger.Debug().Msg("details")

	assert.Equal(t, "debug", decode(t, &buf)[zerolog.LevelFieldName])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error().Msg("dropped")
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	scoped := WithFields(NewWithWriter(&buf), map[string]any{FieldMethod: "/budget.v1.LedgerService/ClosePeriod"})

	ctx := WithContext(context.Background(), scoped)
	logger := FromContext(ctx, Discard())
	logger.Info().Msg("scoped")

	assert.Equal(t, "/budget.v1.LedgerService/ClosePeriod", decode(t, &buf)[FieldMethod])

	fallback := FromContext(context.Background(), Discard())
	assert.Equal(t, zerolog.Disabled, fallback.GetLevel())
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithOperation(OpClose).
		WithPeriod("2025-03").
		WithAmount("800").
		WithError(errors.New("boom")).
		WithError(nil)

	assert.Len(t, fields, 4)
	assert.Equal(t, "boom", fields[FieldError])

	var buf bytes.Buffer
	logger := WithFields(NewWithWriter(&buf), fields)
	logger.Info().Msg("settled")

	rec := decode(t, &buf)
	assert.Equal(t, OpClose, rec[FieldOperation])
	assert.Equal(t, "800", rec[FieldAmount])
}
