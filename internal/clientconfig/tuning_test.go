package clientconfig_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubecli/kubecli/internal/clientconfig"
)

func TestLoadTuning_EmptyPathReturnsDefaults(t *testing.T) {
	tuning, err := clientconfig.LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, clientconfig.DefaultTuning(), tuning)
}

func TestLoadTuning_OverridesOnlyTheFieldsSet(t *testing.T) {
	path := t.TempDir() + "/tuning.toml"
	require.NoError(t, os.WriteFile(path, []byte("request_timeout = 5000000000\n"), 0o600))

	tuning, err := clientconfig.LoadTuning(path)
	require.NoError(t, err)

	defaults := clientconfig.DefaultTuning()
	assert.Equal(t, 5*time.Second, tuning.RequestTimeout)
	assert.Equal(t, defaults.WatchBackoffMin, tuning.WatchBackoffMin)
	assert.Equal(t, defaults.WatchBackoffMax, tuning.WatchBackoffMax)
}

func TestLoadTuning_MissingFileReturnsError(t *testing.T) {
	_, err := clientconfig.LoadTuning(t.TempDir() + "/missing.toml")
	assert.Error(t, err)
}
