package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	Administrator       string // LEDGER_ADMINISTRATOR bootstraps the registry administrator on first start
	SettlementProvider  string // "wallet" (default) or "stripe"
	SettlementEscrow    string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string
	StripeAccounts      map[string]string // identity -> connected account, from STRIPE_ACCOUNTS="alice=acct_1,bob=acct_2"
	EventStream         string
	EventStreamMaxLen   int64
	RateLimitRPS        float64
	RateLimitBurst      int
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SETTLEMENT_PROVIDER", "wallet")
	viper.SetDefault("STRIPE_CURRENCY", "sgd")
	viper.SetDefault("EVENT_STREAM", "ledger:events")
	viper.SetDefault("EVENT_STREAM_MAXLEN", 100000)
	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		Administrator:       strings.TrimSpace(viper.GetString("LEDGER_ADMINISTRATOR")),
		SettlementProvider:  strings.ToLower(strings.TrimSpace(viper.GetString("SETTLEMENT_PROVIDER"))),
		SettlementEscrow:    viper.GetString("SETTLEMENT_ESCROW"),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      viper.GetString("STRIPE_CURRENCY"),
		StripeAccounts:      parseAccounts(viper.GetString("STRIPE_ACCOUNTS")),
		EventStream:         viper.GetString("EVENT_STREAM"),
		EventStreamMaxLen:   viper.GetInt64("EVENT_STREAM_MAXLEN"),
		RateLimitRPS:        viper.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:      viper.GetInt("RATE_LIMIT_BURST"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func parseAccounts(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}
