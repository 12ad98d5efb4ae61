package db

import (
	"github.com/caarlos0/env/v11"
)

// Config 数据库配置
type Config struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // mysql, postgres, sqlite
	DSN    string `env:"DB_DSN" envDefault:":memory:"`

	// 连接池配置
	MaxOpenConns    int `env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int `env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int `env:"DB_CONN_MAX_LIFETIME"` // 秒
	ConnMaxIdleTime int `env:"DB_CONN_MAX_IDLE_TIME"` // 秒
}

// ConfigFromEnv 从环境变量解析数据库配置。
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewDatabaseFunc 工厂方法（由具体实现提供）
type NewDatabaseFunc func(config Config) (IDatabase, error)
