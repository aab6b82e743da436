package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Inventory InventoryConfig `yaml:"inventory"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	EventsTopic string   `yaml:"eventsTopic"`
	OrdersTopic string   `yaml:"ordersTopic"`
	GroupID     string   `yaml:"groupId"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"serviceName"`
}

// CatalogConfig holds the catalog settings the inventory rules depend on.
type CatalogConfig struct {
	PublishBackProductWhenCancellingOrders bool `yaml:"publishBackProductWhenCancellingOrders"`
}

type InventoryConfig struct {
	MaxRetryAttempts int           `yaml:"maxRetryAttempts"`
	TxTimeout        time.Duration `yaml:"txTimeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "stockroom")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "stockroom")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "stockroom.events")
	v.SetDefault("KAFKA_ORDERS_TOPIC", "orders.events")
	v.SetDefault("KAFKA_GROUP_ID", "stockroom")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SERVICE_NAME", "stockroom")
	v.SetDefault("CATALOG_PUBLISH_BACK_PRODUCT_WHEN_CANCELLING_ORDERS", false)
	v.SetDefault("INVENTORY_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("INVENTORY_TX_TIMEOUT", "5s")

	var connMaxLifetime, txTimeout, readTimeout, writeTimeout, idleTimeout, shutdownTimeout time.Duration
	for key, dst := range map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":    &connMaxLifetime,
		"INVENTORY_TX_TIMEOUT":    &txTimeout,
		"SERVER_READ_TIMEOUT":     &readTimeout,
		"SERVER_WRITE_TIMEOUT":    &writeTimeout,
		"SERVER_IDLE_TIMEOUT":     &idleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &shutdownTimeout,
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		*dst = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			IdleTimeout:     idleTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			EventsTopic: v.GetString("KAFKA_EVENTS_TOPIC"),
			OrdersTopic: v.GetString("KAFKA_ORDERS_TOPIC"),
			GroupID:     v.GetString("KAFKA_GROUP_ID"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			Endpoint:    v.GetString("TRACING_ENDPOINT"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
		},
		Catalog: CatalogConfig{
			PublishBackProductWhenCancellingOrders: v.GetBool("CATALOG_PUBLISH_BACK_PRODUCT_WHEN_CANCELLING_ORDERS"),
		},
		Inventory: InventoryConfig{
			MaxRetryAttempts: v.GetInt("INVENTORY_MAX_RETRY_ATTEMPTS"),
			TxTimeout:        txTimeout,
		},
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
