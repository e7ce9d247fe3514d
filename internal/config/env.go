package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Env struct {
	AppAddr          string
	GinMode          string
	DBDSN            string
	RedisURL         string
	ReportCacheTTL   time.Duration
	FareExpenseShare decimal.Decimal
	CORSOrigins      []string
	LogLevel         string
}

const defaultDSN = "root:@tcp(127.0.0.1:3306)/travel_finance?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads .env when present, then the process environment. Values that
// fail to parse fall back to their defaults.
func LoadEnv() Env {
	_ = godotenv.Load()

	env := Env{
		AppAddr:          getenv("APP_ADDR", ":8080"),
		GinMode:          getenv("GIN_MODE", ""),
		DBDSN:            getenv("DB_DSN", defaultDSN),
		RedisURL:         getenv("REDIS_URL", ""),
		ReportCacheTTL:   60 * time.Second,
		FareExpenseShare: decimal.NewFromFloat(0.80),
		CORSOrigins:      defaultOrigins,
		LogLevel:         getenv("LOG_LEVEL", "info"),
	}

	if raw := getenv("REPORT_CACHE_TTL", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			env.ReportCacheTTL = d
		}
	}
	if raw := getenv("FARE_EXPENSE_SHARE", ""); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil && d.IsPositive() && d.LessThanOrEqual(decimal.NewFromInt(1)) {
			env.FareExpenseShare = d
		}
	}
	if raw := getenv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		origins := []string{}
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			env.CORSOrigins = origins
		}
	}

	return env
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
