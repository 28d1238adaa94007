package providers

import (
	"fmt"
	"gatebot/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const AppName = "GateBot"

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.pollTimeout", 60)
	v.SetDefault("telegram.workers", 16)
	v.SetDefault("admin.triggerPhrase", "I AM BOSS")
	v.SetDefault("admin.elevationTTL", 30*time.Minute)
	v.SetDefault("downloads.maxFileSizeMB", 200)
	v.SetDefault("downloads.fetcherBinary", "yt-dlp")
	v.SetDefault("downloads.fetchTimeout", 10*time.Minute)
	v.SetDefault("downloads.orphanTTL", time.Hour)
	v.SetDefault("persistence.sweepInterval", 10*time.Minute)
	v.SetDefault("cache.ttl", 5*time.Second)
	v.SetDefault("logger.mode", 0644)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setDefaults(v)

	_ = v.BindEnv("telegram.token", "GATEBOT_BOT_TOKEN", "BOT_TOKEN")
	_ = v.BindEnv("admin.pin", "GATEBOT_ADMIN_PIN", "ADMIN_PIN")
	_ = v.BindEnv("logger.level", "GATEBOT_LOG_LEVEL")
	_ = v.BindEnv("persistence.filePath", "GATEBOT_DATA_FILE")
	_ = v.BindEnv("downloads.dir", "GATEBOT_DOWNLOADS_DIR")
	_ = v.BindEnv("cache.enabled", "GATEBOT_CACHE_ENABLED")
	_ = v.BindEnv("metrics.enabled", "GATEBOT_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
