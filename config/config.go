package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config настройки сервиса, собираемые из файла и переменных окружения
type Config struct {
	ServerAddr string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	SQLitePath string

	PollEnabled  bool
	PollURL      string
	PollInterval time.Duration

	EwmaAlpha    float64
	EwmaLambda   float64
	HampelWindow int
}

// Load читает config.yaml (если есть) и окружение с префиксом ANOMALY.
// Каждому ключу задано значение по умолчанию.
func Load() (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("sqlite.path", "anomaly-settings.db")
	v.SetDefault("poll.enabled", false)
	v.SetDefault("poll.url", "http://localhost:9000/readings")
	v.SetDefault("poll.interval", 30*time.Second)
	v.SetDefault("detector.ewma_alpha", 0.1)
	v.SetDefault("detector.ewma_lambda", 0.94)
	v.SetDefault("detector.hampel_window", 7)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ANOMALY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// отсутствие файла не ошибка, работаем на умолчаниях и окружении
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	cfg := &Config{
		ServerAddr:    v.GetString("server.addr"),
		RedisEnabled:  v.GetBool("redis.enabled"),
		RedisAddr:     v.GetString("redis.addr"),
		RedisPassword: v.GetString("redis.password"),
		SQLitePath:    v.GetString("sqlite.path"),
		PollEnabled:   v.GetBool("poll.enabled"),
		PollURL:       v.GetString("poll.url"),
		PollInterval:  v.GetDuration("poll.interval"),
		EwmaAlpha:     v.GetFloat64("detector.ewma_alpha"),
		EwmaLambda:    v.GetFloat64("detector.ewma_lambda"),
		HampelWindow:  v.GetInt("detector.hampel_window"),
	}
	return cfg, v, nil
}
