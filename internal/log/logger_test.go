package log

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_ExplicitLevelWins(t *testing.T) {
	t.Parallel()

	logger := New("trailbook-api", "warn", "development")
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNew_EnvironmentDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.DebugLevel, New("trailbook-api", "", "development").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("trailbook-api", "", "production").GetLevel())
}

func TestNew_BadLevelFallsBack(t *testing.T) {
	t.Parallel()

	logger := New("trailbook-api", "verbose", "production")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
