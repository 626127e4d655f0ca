package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/parts-ledger/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("loud"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
}

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})

	l.Debug().Msg("hidden")
	l.Info().Str("part_number", "P1").Msg("purchase recorded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "purchase recorded", entry["message"])
	assert.Equal(t, "P1", entry["part_number"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_DevelopmentIsReadable(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "development", Level: "debug", Out: &buf})

	l.Debug().Msg("stock reconciled")

	assert.Contains(t, buf.String(), "stock reconciled")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
