package providers

import (
	"gatebot/internal/structures"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
telegram:
  token: "111:from-file"
admin:
  pin: "654321"
downloads:
  dir: /tmp/gatebot-downloads
webServer:
  host: 127.0.0.1
  port: 8080
persistence:
  filePath: /tmp/gatebot.json
  sweepInterval: 5m
logger:
  level: info
  dir: /tmp
`

func writeConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0644))
	return path
}

func TestConfigProvider_LoadsFileWithDefaults(t *testing.T) {
	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: writeConfig(t), DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, AppName, conf.AppName)
	assert.True(t, conf.Debug)
	assert.Equal(t, "111:from-file", conf.Telegram.Token)
	assert.Equal(t, "654321", conf.Admin.PIN)
	assert.Equal(t, "I AM BOSS", conf.Admin.TriggerPhrase)
	assert.Equal(t, 200, conf.Downloads.MaxFileSizeMB)
	assert.Equal(t, 5*time.Minute, conf.Persistence.SweepInterval)
	assert.Equal(t, uint32(0644), conf.Logger.Mode)
}

func TestConfigProvider_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("BOT_TOKEN", "222:from-env")
	t.Setenv("ADMIN_PIN", "000111")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: writeConfig(t)})
	require.NoError(t, err)

	assert.Equal(t, "222:from-env", conf.Telegram.Token)
	assert.Equal(t, "000111", conf.Admin.PIN)
}

func TestConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}
