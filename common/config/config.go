package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SCRIMS"

type Config struct {
	AWS      AWSConfig
	DynamoDB DynamoDBConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Server   ServerConfig
	Discord  DiscordConfig
	Scrim    ScrimConfig
	Cache    CacheConfig
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

type DynamoDBConfig struct {
	TableName        string
	MaxRetries       int
	UseLocalEndpoint bool
}

type PostgresConfig struct {
	DSN             string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type NATSConfig struct {
	URL                  string
	MaxReconnect         int
	ReconnectWaitSeconds int
	TimeoutSeconds       int
}

type ServerConfig struct {
	HTTPPort           int
	GRPCPort           int
	Environment        string
	LogLevel           string
	LogFormat          string
	ServiceTokenSecret string
	PersistenceTimeout time.Duration
	InstanceId         string
}

type DiscordConfig struct {
	Token        string
	GuildId      string
	AdminRoleIds []string
	AdminUserIds []string
}

type ScrimConfig struct {
	LobbySize               int
	RosterLockLead          time.Duration
	PassGrants              []string
	PriorityExpungeInterval time.Duration
}

type CacheConfig struct {
	Driver string
	Prefix string
}

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// Load reads config.yaml from ./config, the working directory and configPath.
// A .env file, when present, is loaded into the process environment first so
// SCRIMS_* variables in it override the yaml values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", "eu-central-1")
	v.SetDefault("dynamodb.tablename", "scrims")
	v.SetDefault("dynamodb.maxretries", 3)

	v.SetDefault("postgres.automigrate", true)
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 2)
	v.SetDefault("postgres.connmaxlifetime", 30*time.Minute)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.maxretries", 3)
	v.SetDefault("redis.dialtimeout", 5*time.Second)
	v.SetDefault("redis.readtimeout", 3*time.Second)
	v.SetDefault("redis.writetimeout", 3*time.Second)
	v.SetDefault("redis.poolsize", 10)
	v.SetDefault("redis.minidleconns", 2)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.maxreconnect", 10)
	v.SetDefault("nats.reconnectwaitseconds", 2)
	v.SetDefault("nats.timeoutseconds", 5)

	v.SetDefault("server.httpport", 8080)
	v.SetDefault("server.grpcport", 9090)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.loglevel", "info")
	v.SetDefault("server.logformat", "json")
	v.SetDefault("server.persistencetimeout", 2500*time.Millisecond)

	v.SetDefault("scrim.lobbysize", 20)
	v.SetDefault("scrim.rosterlocklead", 30*time.Minute)
	v.SetDefault("scrim.priorityexpungeinterval", time.Hour)

	v.SetDefault("cache.driver", CacheDriverMemory)
	v.SetDefault("cache.prefix", "roster")
}

func (c *Config) Validate() error {
	if c.Scrim.LobbySize <= 0 {
		return fmt.Errorf("scrim.lobbysize must be positive, got %d", c.Scrim.LobbySize)
	}
	if c.Scrim.RosterLockLead < 0 {
		return fmt.Errorf("scrim.rosterlocklead must not be negative, got %s", c.Scrim.RosterLockLead)
	}
	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverRedis:
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	if c.Server.PersistenceTimeout <= 0 {
		return fmt.Errorf("server.persistencetimeout must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
