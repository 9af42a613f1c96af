package config

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	ServerAddress   string        `json:"server_address" env:"SERVER_ADDRESS" envDefault:"localhost:8080"`
	BaseURL         string        `json:"base_url" env:"BASE_URL" envDefault:"http://localhost:8080"`
	LoggerLevel     string        `json:"log_level" env:"LOG_LEVEL" envDefault:"info"`
	DatabaseDSN     string        `json:"database_dsn" env:"DATABASE_DSN"`
	RedisAddress    string        `json:"redis_address" env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	EnableHTTPS     bool          `json:"enable_https" env:"ENABLE_HTTPS"`
	ConfigFile      string        `json:"-" env:"CONFIG"`
	TrustedSubnet   string        `json:"trusted_subnet" env:"TRUSTED_SUBNET"`
	CacheTTL        time.Duration `json:"cache_ttl" env:"CACHE_TTL" envDefault:"1h"`
	ShortCodeLength int           `json:"short_code_length" env:"SHORT_CODE_LENGTH" envDefault:"7"`
	FraudWindow     time.Duration `json:"fraud_window" env:"FRAUD_WINDOW" envDefault:"10s"`
	FraudMaxClicks  int64         `json:"fraud_max_clicks" env:"FRAUD_MAX_CLICKS" envDefault:"3"`
	BlockDuration   time.Duration `json:"block_duration" env:"BLOCK_DURATION" envDefault:"1h"`
	RateLimitWindow time.Duration `json:"rate_limit_window" env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitMax    int64         `json:"rate_limit_max" env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitAuth   int64         `json:"rate_limit_auth" env:"RATE_LIMIT_AUTH" envDefault:"1000"`
	WebhookTimeout  time.Duration `json:"webhook_timeout" env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	ClickWorkers    int           `json:"click_workers" env:"CLICK_WORKERS" envDefault:"4"`
	ClickQueueSize  int           `json:"click_queue_size" env:"CLICK_QUEUE_SIZE" envDefault:"1024"`
	GeoAPIURL       string        `json:"geo_api_url" env:"GEO_API_URL" envDefault:"https://ipapi.co"`
}

// LoadConfig загружает конфигурацию из переменных окружения и флагов командной строки или JSON конфиг файла
func LoadConfig() *Config {
	config := &Config{}
	err := env.Parse(config)

	if err != nil {
		panic(err)
	}

	ParseFlags(config)

	if config.ConfigFile != "" {
		fileConfig, err := loadConfigFromFile(config.ConfigFile)
		if err != nil {
			panic(err)
		}
		mergeConfigs(config, fileConfig)
	}

	return config
}

// ParseFlags добавляет флаги командной строки для параметров конфигурации
// и переопределяет значения, если они указаны в аргументах запуска.
func ParseFlags(config *Config) {
	flag.StringVar(&config.ServerAddress, "a", config.ServerAddress, "address and port to run server")
	flag.StringVar(&config.BaseURL, "b", config.BaseURL, "address and port to link")
	flag.StringVar(&config.LoggerLevel, "l", config.LoggerLevel, "log level")
	flag.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	flag.StringVar(&config.RedisAddress, "r", config.RedisAddress, "redis address")
	flag.BoolVar(&config.EnableHTTPS, "s", config.EnableHTTPS, "enable HTTPS")
	flag.StringVar(&config.TrustedSubnet, "t", config.TrustedSubnet, "trusted subnet in CIDR format")
	flag.DurationVar(&config.CacheTTL, "cache-ttl", config.CacheTTL, "link cache TTL")
	flag.IntVar(&config.ShortCodeLength, "code-length", config.ShortCodeLength, "short code length")
	flag.IntVar(&config.ClickWorkers, "click-workers", config.ClickWorkers, "click recorder worker count")

	flag.Parse()
}

func loadConfigFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) isDefault(field string) bool {
	switch field {
	case "ServerAddress":
		return c.ServerAddress == "localhost:8080"
	case "BaseURL":
		return c.BaseURL == "http://localhost:8080"
	case "LoggerLevel":
		return c.LoggerLevel == "info"
	case "DatabaseDSN":
		return c.DatabaseDSN == ""
	case "RedisAddress":
		return c.RedisAddress == "localhost:6379"
	case "EnableHTTPS":
		return !c.EnableHTTPS
	case "CacheTTL":
		return c.CacheTTL == time.Hour
	default:
		return false
	}
}

func mergeConfigs(dst, src *Config) {
	if src.ServerAddress != "" && dst.isDefault("ServerAddress") {
		dst.ServerAddress = src.ServerAddress
	}
	if src.BaseURL != "" && dst.isDefault("BaseURL") {
		dst.BaseURL = src.BaseURL
	}
	if src.LoggerLevel != "" && dst.isDefault("LoggerLevel") {
		dst.LoggerLevel = src.LoggerLevel
	}
	if src.DatabaseDSN != "" && dst.isDefault("DatabaseDSN") {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if src.RedisAddress != "" && dst.isDefault("RedisAddress") {
		dst.RedisAddress = src.RedisAddress
	}
	if src.EnableHTTPS && dst.isDefault("EnableHTTPS") {
		dst.EnableHTTPS = src.EnableHTTPS
	}
	if src.TrustedSubnet != "" && dst.TrustedSubnet == "" {
		dst.TrustedSubnet = src.TrustedSubnet
	}
	if src.CacheTTL != 0 && dst.isDefault("CacheTTL") {
		dst.CacheTTL = src.CacheTTL
	}
}
