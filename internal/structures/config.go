package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host          string `yaml:"host" validate:"required"`
	Port          int    `yaml:"port" validate:"required|uint|min:1"`
	MaxUploadSize int64  `yaml:"maxUploadSize"`
}

type Persistence struct {
	Driver   string `yaml:"driver" validate:"required|in:file,postgres"`
	FilePath string `yaml:"filePath" validate:"unixPath"`
	DSN      string `yaml:"dsn"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type DetectorConfig struct {
	URL       string        `yaml:"url" validate:"required|fullUrl"`
	ApiKey    string        `yaml:"apiKey"`
	Timeout   time.Duration `yaml:"timeout"`
	Threshold float64       `yaml:"threshold"`
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
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Detector    DetectorConfig `yaml:"detector"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
