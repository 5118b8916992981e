package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropsense/internal/config"
	"dropsense/internal/errors"
	"dropsense/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
helper:
  command: /usr/local/bin/drop-helper
  args: ["--verbose"]
  ready_timeout: 5s
surface:
  screen:
    width: 2560
    height: 1600
  file_manager_bundle_ids: ["com.apple.finder", "com.binarynights.ForkLift"]
watch:
  directories: ["/home/test/Desktop"]
log:
  debug: true
  json: true
server:
  address: ":9000"
`
	invalidSyntaxYAML = `
helper:
  command: "/usr/bin/helper
surface: [
`
	invalidScreenYAML = `
surface:
  screen:
    width: -1
`
	negativeTimeoutYAML = `
helper:
  ready_timeout: -3s
`
	emptyWatchDirYAML = `
watch:
  directories: ["", "/tmp"]
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Setenv(config.EnvHelper, "")
	t.Setenv(config.EnvDebug, "")

	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "/usr/local/bin/drop-helper", cfg.Helper.Command)
		assert.Equal(t, []string{"--verbose"}, cfg.Helper.Args)
		assert.Equal(t, 5*time.Second, cfg.Helper.ReadyTimeout)
		assert.Equal(t, types.Rect{Width: 2560, Height: 1600}, cfg.ScreenRect())
		assert.Len(t, cfg.Surface.FileManagerBundleIDs, 2)
		// Unset lists keep their defaults
		assert.Equal(t, []string{"Finder"}, cfg.Surface.FileManagerOwners)
		assert.Equal(t, []string{"/home/test/Desktop"}, cfg.Watch.Directories)
		assert.True(t, cfg.Log.Debug)
		assert.True(t, cfg.Log.JSON)
		assert.Equal(t, ":9000", cfg.Server.Address)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultReadyTimeout, cfg.Helper.ReadyTimeout)
		assert.Equal(t, []string{"helper"}, cfg.Helper.Args)
		assert.Equal(t, []string{"com.apple.finder"}, cfg.Surface.FileManagerBundleIDs)
		assert.Equal(t, []string{"Finder"}, cfg.Surface.FileManagerOwners)
		assert.Empty(t, cfg.Watch.Directories)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("invalid values", func(t *testing.T) {
		for name, content := range map[string]string{
			"screen":    invalidScreenYAML,
			"timeout":   negativeTimeoutYAML,
			"watch dir": emptyWatchDirYAML,
		} {
			_, err := config.LoadConfigFile(createTestYAML(t, content))
			require.Error(t, err, name)
			assert.True(t, errors.IsInvalidConfig(err), name)
		}
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(config.EnvHelper, "/opt/helper")
	t.Setenv(config.EnvDebug, "true")

	cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "/opt/helper", cfg.Helper.Command)
	assert.True(t, cfg.Log.Debug)

	t.Setenv(config.EnvDebug, "sometimes")
	_, err = config.LoadConfigFile(createTestYAML(t, validYAML))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestLoadConfigUsesEnvPath(t *testing.T) {
	t.Setenv(config.EnvHelper, "")
	t.Setenv(config.EnvDebug, "")
	t.Setenv(config.EnvConfig, createTestYAML(t, validYAML))

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
}

func TestSaveConfig(t *testing.T) {
	t.Setenv(config.EnvHelper, "")
	t.Setenv(config.EnvDebug, "")

	cfg := config.New()
	cfg.Helper.ReadyTimeout = 750 * time.Millisecond
	cfg.Watch.Directories = []string{"/tmp/drops"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Helper.ReadyTimeout, loaded.Helper.ReadyTimeout)
	assert.Equal(t, cfg.Watch.Directories, loaded.Watch.Directories)
	assert.Equal(t, cfg.Helper.Command, loaded.Helper.Command)
}

func TestValidate(t *testing.T) {
	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())

	cfg := config.New()
	require.NoError(t, cfg.Validate())

	cfg.Helper.Command = ""
	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "helper.command", cfgErr.Param())
}

func TestWatchDirectories(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := config.New()
	cfg.Watch.Directories = []string{"~/Desktop", "/var/drops"}
	assert.Equal(t, []string{filepath.Join(home, "Desktop"), "/var/drops"}, cfg.WatchDirectories())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, config.LoadEnvFile(filepath.Join(dir, ".env")))

	envPath := filepath.Join(dir, "ok.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DROPSENSE_TEST_DOTENV=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DROPSENSE_TEST_DOTENV") })
	require.NoError(t, config.LoadEnvFile(envPath))
	assert.Equal(t, "from-file", os.Getenv("DROPSENSE_TEST_DOTENV"))

	// A directory is not a readable env file
	badPath := filepath.Join(dir, "bad.env")
	require.NoError(t, os.Mkdir(badPath, 0755))
	err := config.LoadEnvFile(badPath)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}
