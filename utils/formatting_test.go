package utils

import (
	"testing"
	"time"

	"github.com/sosodev/duration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "1h30m", HumanizeDuration(ToDuration(90*time.Minute)))
	assert.Equal(t, "4w", HumanizeDuration(ToDuration(28*Day)))
	assert.Equal(t, "521w3d", HumanizeDuration(ToDuration(315360000*time.Second)))
	assert.Equal(t, "0s", HumanizeDuration(ToDuration(0)))

	d, err := duration.Parse("P1DT2H")
	require.NoError(t, err)
	assert.Equal(t, "1d2h", HumanizeDuration(d))
}

func TestEmbedGUID(t *testing.T) {
	assert.Equal(t, " (abc)", EmbedGUID("abc"))
}
