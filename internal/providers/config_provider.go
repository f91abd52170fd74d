package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"icd/internal/structures"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultThreshold     = 0.90
	DefaultMaxUploadSize = 10 << 20 // 10 MB
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("webServer.maxUploadSize", DefaultMaxUploadSize)
	viper.SetDefault("persistence.driver", "file")
	viper.SetDefault("detector.threshold", DefaultThreshold)
	viper.SetDefault("detector.timeout", 30*time.Second)
	viper.SetDefault("cache.ttl", time.Minute)

	viper.BindEnv("logger.level", "ICD_LOG_LEVEL")
	viper.BindEnv("persistence.driver", "ICD_STORE_DRIVER")
	viper.BindEnv("persistence.dsn", "ICD_DATABASE_DSN")
	viper.BindEnv("detector.url", "ICD_DETECTOR_URL")
	viper.BindEnv("detector.apiKey", "ICD_DETECTOR_API_KEY")
	viper.BindEnv("cache.enabled", "ICD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "ICD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ItemCounterDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
