package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithService(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	var buf bytes.Buffer

	log := Init(Options{Level: "debug", Service: "marketplace-api", Output: &buf})
	log.Debug().Str("request_id", "r1").Msg("hello")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "marketplace-api", event["service"])
	assert.Equal(t, "r1", event["request_id"])
	assert.Equal(t, "debug", event["level"])
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	var first, second bytes.Buffer

	Init(Options{Output: &first})
	Init(Options{Output: &second})
	l := Get()
	l.Info().Msg("x")

	assert.NotZero(t, first.Len())
	assert.Zero(t, second.Len())
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	assert.Panics(t, func() { Get() })
}

func TestCtx(t *testing.T) {
	var fallbackBuf, scopedBuf bytes.Buffer
	fallback := zerolog.New(&fallbackBuf)

	Ctx(context.Background(), fallback).Info().Msg("plain")
	assert.Contains(t, fallbackBuf.String(), "plain")

	scoped := zerolog.New(&scopedBuf).With().Str("request_id", "r2").Logger()
	Ctx(WithContext(context.Background(), scoped), fallback).Info().Msg("scoped")
	assert.Contains(t, scopedBuf.String(), `"request_id":"r2"`)
	assert.NotContains(t, fallbackBuf.String(), "scoped")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}
