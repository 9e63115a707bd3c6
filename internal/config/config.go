package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                   string
	Port                  string
	DatabaseURL           string
	RedisURL              string
	JWTSecret             string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StorageURL            string // object-storage base URL for property images
	StorageSecretKey      string // must be the service key, not the public anon key
	BrevoAPIKey           string // BREVO_API_KEY for agent inquiry emails
	MailFrom              string
	FrontendURLEndsWith   string
	DevPassword           string
	PublicBaseURL         string // prefix for relative image paths in API responses
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "5000"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                   env,
		Port:                  port,
		DatabaseURL:           dbURL,
		RedisURL:              viper.GetString("REDIS_URL"),
		JWTSecret:             viper.GetString("JWT_SECRET"),
		RazorpayKeyID:         viper.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     viper.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: viper.GetString("RAZORPAY_WEBHOOK_SECRET"),
		StorageURL:            viper.GetString("STORAGE_URL"),
		StorageSecretKey:      viper.GetString("STORAGE_SECRET_KEY"),
		BrevoAPIKey:           viper.GetString("BREVO_API_KEY"),
		MailFrom:              viper.GetString("MAIL_FROM"),
		FrontendURLEndsWith:   viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:           viper.GetString("DEV_PASSWORD"),
		PublicBaseURL:         publicBaseURL(viper.GetString("PUBLIC_BASE_URL")),
	}, nil
}

func publicBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "http://localhost:5000"
	}
	return strings.TrimRight(s, "/")
}
