package provider

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type (
	Config struct {
		TelegramBotConfig TelegramBotConfig `yaml:"telegram-bot"`
		ServerConfig      ServerConfig      `yaml:"server"`
		LuisConfig        LuisConfig        `yaml:"luis"`
		QnAConfig         QnAConfig         `yaml:"qna"`
		SchedulerConfig   SchedulerConfig   `yaml:"scheduler"`
		SlotsConfig       SlotsConfig       `yaml:"slots"`
		RedisConfig       RedisConfig       `yaml:"redis"`
		BreakerConfig     BreakerConfig     `yaml:"breaker"`
		LoggerConfig      LoggerConfig      `yaml:"logger"`
	}

	TelegramBotConfig struct {
		Enabled bool   `yaml:"enabled"`
		ApiKey  string `yaml:"api-key"`

		UseProxy  bool   `yaml:"use-proxy"`
		HttpProxy string `yaml:"http-proxy"`
	}

	ServerConfig struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		BotId   string `yaml:"bot-id"`
	}

	// LuisConfig points at a LUIS v3 prediction endpoint.
	LuisConfig struct {
		Endpoint string        `yaml:"endpoint"`
		AppId    string        `yaml:"app-id"`
		ApiKey   string        `yaml:"api-key"`
		Slot     string        `yaml:"slot"`
		Timeout  time.Duration `yaml:"timeout"`
	}

	QnAConfig struct {
		Endpoint       string        `yaml:"endpoint"`
		KnowledgeBase  string        `yaml:"knowledge-base"`
		EndpointKey    string        `yaml:"endpoint-key"`
		Top            int           `yaml:"top"`
		ScoreThreshold float64       `yaml:"score-threshold"`
		Timeout        time.Duration `yaml:"timeout"`
	}

	SchedulerConfig struct {
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`
	}

	// SlotsConfig selects where conversation slots live. Backend is "memory" or "redis".
	SlotsConfig struct {
		Backend string        `yaml:"backend"`
		TTL     time.Duration `yaml:"ttl"`
	}

	RedisConfig struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}

	BreakerConfig struct {
		MaxRequests      uint32        `yaml:"max-requests"`
		Interval         time.Duration `yaml:"interval"`
		Timeout          time.Duration `yaml:"timeout"`
		FailureThreshold uint32        `yaml:"failure-threshold"`
	}

	LoggerConfig struct {
		Level      string `yaml:"level"`
		Encoding   string `yaml:"encoding"`
		Filename   string `yaml:"filename"`
		MaxSize    int    `yaml:"max-size"`
		MaxAge     int    `yaml:"max-age"`
		MaxBackups int    `yaml:"max-backups"`
		LocalTime  bool   `yaml:"local-time"`
		Compress   bool   `yaml:"compress"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.filename", "logs/dentabot.log")
	v.SetDefault("logger.max-size", 100)
	v.SetDefault("logger.max-age", 30)
	v.SetDefault("logger.max-backups", 10)
	v.SetDefault("logger.compress", true)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":3978")
	v.SetDefault("server.bot-id", "dentabot")

	v.SetDefault("luis.slot", "production")
	v.SetDefault("luis.timeout", "10s")

	v.SetDefault("qna.top", 1)
	v.SetDefault("qna.score-threshold", 0.3)
	v.SetDefault("qna.timeout", "10s")

	v.SetDefault("scheduler.timeout", "10s")

	v.SetDefault("slots.backend", "memory")
	v.SetDefault("slots.ttl", "30m")

	v.SetDefault("redis.address", "localhost:6379")

	v.SetDefault("breaker.max-requests", 3)
	v.SetDefault("breaker.interval", "60s")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.failure-threshold", 5)
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("dentabot")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/dentabot")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
