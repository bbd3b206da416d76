package procinfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfName(t *testing.T) {
	name, err := System{}.Name(context.Background(), Self())
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestUnknownPID(t *testing.T) {
	_, err := System{}.Name(context.Background(), 1<<31-2)
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(`\Device\HarddiskVolume3\World of Warcraft\Wow.exe`, "warcraft"))
	assert.True(t, Contains("Wow.exe", "WOW"))
	assert.False(t, Contains("chrome.exe", "warcraft"))
	assert.False(t, Contains("anything", "  "))
}
