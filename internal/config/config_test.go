package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "airtracker.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 320, cfg.Display.Width)
	assert.Equal(t, 240, cfg.Display.Height)
	assert.Equal(t, 1, cfg.Display.Rotation)
	assert.Equal(t, 180*1024, cfg.Assets.Logo.MaxBytes)
	assert.Equal(t, 220*1024, cfg.Assets.Photo.MaxBytes)
	assert.Equal(t, 80, cfg.Assets.Photo.MaxWidth)
	assert.Equal(t, time.Second, cfg.Heartbeat())
	assert.Equal(t, 10*time.Second, cfg.AssetTimeout())
	assert.Equal(t, "airtracker", cfg.MQTT.Prefix)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
timezone: Europe/London
mqtt:
  host: broker.lan
  prefix: home/air
scheduler:
  heartbeat_ms: 500
assets:
  dir: ""
  logo:
    max_bytes: 65536
    max_width: 64
    max_height: 64
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "broker.lan", cfg.MQTT.Host)
	assert.Equal(t, 1883, cfg.MQTT.Port, "unset keys keep defaults")
	assert.Equal(t, "home/air", cfg.MQTT.Prefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Heartbeat())
	assert.Equal(t, 65536, cfg.Assets.Logo.MaxBytes)
	assert.Empty(t, cfg.Assets.Dir)
	assert.Equal(t, "Europe/London", cfg.Location().String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeConfig(t, "mqtt:\n  host: from-file\n")
	t.Setenv("MQTT_HOST", "from-env")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("AIRTRACKER_TZ", "UTC")
	t.Setenv("REDIS_HOST", "cache.lan")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MQTT.Host)
	assert.Equal(t, 8883, cfg.MQTT.Port)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.lan:6379", cfg.Redis.Addr())
}

func TestLoad_BadEnvPort(t *testing.T) {
	t.Setenv("MQTT_PORT", "eighteen")
	_, err := Load("")
	assert.ErrorContains(t, err, "MQTT_PORT")
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "mqtt: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Mars/Olympus_Mons"
	cfg.Display.Width = 128
	cfg.Display.Rotation = 7
	cfg.Scheduler.HeartbeatMS = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "timezone")
	assert.ErrorContains(t, err, "smaller than")
	assert.ErrorContains(t, err, "rotation")
	assert.ErrorContains(t, err, "heartbeat_ms")
}

func TestValidate_RequiresASource(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Enabled = false
	assert.ErrorContains(t, Validate(cfg), "no telemetry source")

	cfg.Feed.Path = "nearest.json"
	assert.NoError(t, Validate(cfg))
}
