package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Where the invoice sequence record lives.
const (
	SequenceStoreDatabase = "database"
	SequenceStoreRedis    = "redis"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	DatabasePath           string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	SearchCacheTTLSeconds  int
	SequenceStore          string
	AuthSecret             string
	AccessTokenTTLMinutes  int
	BootstrapAdminUser     string
	BootstrapAdminPassword string
	ShopName               string
	ShopAddress            string
	ShopPhone              string
	ShopTimezone           string
	LogLevel               string
	LogDevelopment         bool
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("SEARCH_CACHE_TTL_SECONDS", "20"))
	if err != nil || ttl < 1 {
		ttl = 20
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	development, _ := strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DatabasePath:           getEnv("DATABASE_PATH", "smpos.db"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		SearchCacheTTLSeconds:  ttl,
		SequenceStore:          strings.ToLower(getEnv("INVOICE_SEQUENCE_STORE", SequenceStoreDatabase)),
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		BootstrapAdminUser:     getEnv("BOOTSTRAP_ADMIN_USER", "admin"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		ShopName:               getEnv("SHOP_NAME", "SM Electricals & Plumbings"),
		ShopAddress:            os.Getenv("SHOP_ADDRESS"),
		ShopPhone:              os.Getenv("SHOP_PHONE"),
		ShopTimezone:           getEnv("SHOP_TIMEZONE", "Asia/Kolkata"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogDevelopment:         development,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// UseMemoryStore reports the in-memory demo mode (DATABASE_PATH=memory).
func (c Config) UseMemoryStore() bool {
	return c.DatabaseURL == "" && strings.EqualFold(c.DatabasePath, "memory")
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
