package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath      string        `yaml:"filePath" validate:"required|unixPath"`
	Compress      bool          `yaml:"compress"`
	SweepInterval time.Duration `yaml:"sweepInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type TelegramConfig struct {
	Token       string `yaml:"token" validate:"required"`
	PollTimeout int    `yaml:"pollTimeout" validate:"uint"`
	Workers     int    `yaml:"workers" validate:"uint"`
}

type AdminConfig struct {
	PIN           string        `yaml:"pin" validate:"required"`
	TriggerPhrase string        `yaml:"triggerPhrase"`
	ElevationTTL  time.Duration `yaml:"elevationTTL"`
}

type DownloadsConfig struct {
	Dir           string        `yaml:"dir" validate:"required|unixPath"`
	MaxFileSizeMB int           `yaml:"maxFileSizeMB" validate:"uint"`
	FetcherBinary string        `yaml:"fetcherBinary"`
	FetchTimeout  time.Duration `yaml:"fetchTimeout"`
	OrphanTTL     time.Duration `yaml:"orphanTTL"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Telegram    TelegramConfig  `yaml:"telegram"`
	Admin       AdminConfig     `yaml:"admin"`
	Downloads   DownloadsConfig `yaml:"downloads"`
	WebServer   Server          `yaml:"webServer"`
	Persistence Persistence     `yaml:"persistence"`
	Logger      LoggerConfig    `yaml:"logger"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}
