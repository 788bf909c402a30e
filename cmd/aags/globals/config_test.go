package globals

import (
	"os"
	"path/filepath"
	"testing"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, aagslist.DefaultRetryPolicy(), config.Retry.Policy())
	require.Equal(t, 1, config.Table.SubjectColumn)
	require.Equal(t, "AAGS", config.Marker.Label)
}

func TestNewValue(t *testing.T) {
	config := DefaultConfig()
	config.HTTPDumpDir = filepath.Join(t.TempDir(), "dumps")

	value, err := NewValue(config, &telemetry.Recorder{})
	require.NoError(t, err)
	require.NotNil(t, value.List)
	require.NotNil(t, value.Config.PageOptions(false).Dump)

	info, err := os.Stat(config.HTTPDumpDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
