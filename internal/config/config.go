package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBType     string `env:"DB_TYPE" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DB_USER" envDefault:""`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBAddr     string `env:"DB_ADDR" envDefault:"127.0.0.1"`
	DBName     string `env:"DB_NAME" envDefault:"userapi"`
	DBPath     string `env:"DB_PATH" envDefault:"datas/userapi.db"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`

	// 单次存储调用的超时时间
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`
	MaxPageSize  int           `env:"MAX_PAGE_SIZE" envDefault:"100"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"userapi"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`
}

// IsProduction 是否运行在生产模式
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}

func ParseConfig() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	if conf.QueryTimeout <= 0 {
		conf.QueryTimeout = 5 * time.Second
	}
	if conf.MaxPageSize <= 0 {
		conf.MaxPageSize = 100
	}
	logrus.WithFields(logrus.Fields{
		"env":     conf.AppEnv,
		"db_type": conf.DBType,
		"port":    conf.HTTPPort,
	}).Debug("config loaded")
	return conf, nil
}
