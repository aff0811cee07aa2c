package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `env:"ENV" env-default:"local"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer HttpServer
	Database   Database
	Limiter    Limiter
	Cache      Cache
	Import     Import
	Stats      Stats
	Scheduler  Scheduler
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"10"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"10"`
	EnsureSchema       bool          `env:"DB_ENSURE_SCHEMA" env-default:"true" env-description:"create tables if they do not exist on startup"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-default:"redis" env-description:"specifies provider, one of redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"localhost:6379" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: ['172.27.29.90:7000','172.27.29.91:7001'', '172.27.29.92:7002'']"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

type Import struct {
	URL              string        `env:"COUNTRY_API_URL" env-default:"https://storage.googleapis.com/dcr-django-test/countries.json" env-description:"source of the country listing"`
	Timeout          time.Duration `env:"IMPORT_HTTP_TIMEOUT" env-default:"10s"`
	MaxAttempts      int           `env:"IMPORT_MAX_ATTEMPTS" env-default:"3"`
	InitialBackoff   time.Duration `env:"IMPORT_INITIAL_BACKOFF" env-default:"1s"`
	MaxBackoff       time.Duration `env:"IMPORT_MAX_BACKOFF" env-default:"10s"`
	BatchSize        int           `env:"IMPORT_BATCH_SIZE" env-default:"1000"`
	SaveResponsePath string        `env:"IMPORT_SAVE_RESPONSE_PATH" env-default:"api_response.json"`
}

type Stats struct {
	CacheTTL       time.Duration `env:"STATS_CACHE_TTL" env-default:"5m"`
	DefaultPerPage int           `env:"STATS_DEFAULT_PER_PAGE" env-default:"10"`
	MaxPerPage     int           `env:"STATS_MAX_PER_PAGE" env-default:"100"`
}

type Scheduler struct {
	Enabled bool   `env:"IMPORT_SCHEDULE_ENABLED" env-default:"false"`
	Cron    string `env:"IMPORT_SCHEDULE_CRON" env-default:"@daily"`
}

func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
