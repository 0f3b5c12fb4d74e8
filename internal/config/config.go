package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"reepaygw/internal/payment"
	"reepaygw/internal/reepay"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	API      APIConfig
	Reepay   ReepayConfig
	Checkout CheckoutConfig
	Webhook  WebhookConfig
	Poll     PollConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type APIConfig struct {
	Key       string
	TokenHash string
}

type ReepayConfig struct {
	PrivateKey    string
	WebhookSecret string
	CheckoutURL   string
	APIURL        string
	Timeout       time.Duration
}

type CheckoutConfig struct {
	ContinueURL    string
	CancelURL      string
	ErrorURL       string
	Locale         string
	PaymentMethods string
	ButtonText     string
	Capture        bool
	Recurring      bool
	TestMode       bool
	Billing        BillingConfig
}

// BillingConfig names the order properties copied into the billing address.
type BillingConfig struct {
	Company  string
	Address1 string
	Address2 string
	City     string
	Zip      string
	State    string
	Phone    string
}

type WebhookConfig struct {
	DedupTTL   time.Duration
	AllowedIPs []string
}

type PollConfig struct {
	Spec   string
	MinAge time.Duration
	MaxAge time.Duration
	Batch  int
}

type NotifyConfig struct {
	BotToken  string
	ChannelID string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REEPAY_CHECKOUT_URL", reepay.DefaultCheckoutBaseURL)
	viper.SetDefault("REEPAY_API_URL", reepay.DefaultAPIBaseURL)
	viper.SetDefault("REEPAY_TIMEOUT", reepay.DefaultTimeout)
	viper.SetDefault("CHECKOUT_CAPTURE", false)
	viper.SetDefault("WEBHOOK_DEDUP_TTL", 24*time.Hour)
	viper.SetDefault("POLL_SPEC", "@every 5m")
	viper.SetDefault("POLL_MIN_AGE", time.Minute)
	viper.SetDefault("POLL_MAX_AGE", 72*time.Hour)
	viper.SetDefault("POLL_BATCH", 100)

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		API: APIConfig{
			Key:       viper.GetString("API_KEY"),
			TokenHash: viper.GetString("API_TOKEN_SHA256"),
		},
		Reepay: ReepayConfig{
			PrivateKey:    viper.GetString("REEPAY_PRIVATE_KEY"),
			WebhookSecret: viper.GetString("REEPAY_WEBHOOK_SECRET"),
			CheckoutURL:   viper.GetString("REEPAY_CHECKOUT_URL"),
			APIURL:        viper.GetString("REEPAY_API_URL"),
			Timeout:       viper.GetDuration("REEPAY_TIMEOUT"),
		},
		Checkout: CheckoutConfig{
			ContinueURL:    viper.GetString("CHECKOUT_CONTINUE_URL"),
			CancelURL:      viper.GetString("CHECKOUT_CANCEL_URL"),
			ErrorURL:       viper.GetString("CHECKOUT_ERROR_URL"),
			Locale:         viper.GetString("CHECKOUT_LOCALE"),
			PaymentMethods: viper.GetString("CHECKOUT_PAYMENT_METHODS"),
			ButtonText:     viper.GetString("CHECKOUT_BUTTON_TEXT"),
			Capture:        viper.GetBool("CHECKOUT_CAPTURE"),
			Recurring:      viper.GetBool("CHECKOUT_RECURRING"),
			TestMode:       viper.GetBool("CHECKOUT_TEST_MODE"),
			Billing: BillingConfig{
				Company:  viper.GetString("BILLING_COMPANY_PROPERTY"),
				Address1: viper.GetString("BILLING_ADDRESS1_PROPERTY"),
				Address2: viper.GetString("BILLING_ADDRESS2_PROPERTY"),
				City:     viper.GetString("BILLING_CITY_PROPERTY"),
				Zip:      viper.GetString("BILLING_ZIP_PROPERTY"),
				State:    viper.GetString("BILLING_STATE_PROPERTY"),
				Phone:    viper.GetString("BILLING_PHONE_PROPERTY"),
			},
		},
		Webhook: WebhookConfig{
			DedupTTL:   viper.GetDuration("WEBHOOK_DEDUP_TTL"),
			AllowedIPs: splitList(viper.GetString("WEBHOOK_ALLOWED_IPS")),
		},
		Poll: PollConfig{
			Spec:   viper.GetString("POLL_SPEC"),
			MinAge: viper.GetDuration("POLL_MIN_AGE"),
			MaxAge: viper.GetDuration("POLL_MAX_AGE"),
			Batch:  viper.GetInt("POLL_BATCH"),
		},
		Notify: NotifyConfig{
			BotToken:  viper.GetString("NOTIFY_BOT_TOKEN"),
			ChannelID: viper.GetString("NOTIFY_CHANNEL_ID"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Reepay.PrivateKey == "" {
		log.Println("WARNING: REEPAY_PRIVATE_KEY is not set")
	}
	if cfg.Reepay.WebhookSecret == "" {
		log.Println("WARNING: REEPAY_WEBHOOK_SECRET is not set, every webhook will be rejected")
	}

	return cfg, nil
}

// LoadDatabaseOnly reads just the database settings, for the schema
// migration mode that runs without gateway credentials.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")

	cfg := &DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}
	if cfg.Name == "" {
		return nil, errors.New("DB_NAME is not set")
	}
	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}

// ClientConfig returns the gateway client configuration.
func (r ReepayConfig) ClientConfig() reepay.Config {
	return reepay.Config{
		PrivateKey:      r.PrivateKey,
		CheckoutBaseURL: r.CheckoutURL,
		APIBaseURL:      r.APIURL,
		Timeout:         r.Timeout,
	}
}

// Settings returns the provider settings for the configured account.
func (c *Config) Settings() payment.Settings {
	return payment.Settings{
		PrivateKey:              c.Reepay.PrivateKey,
		WebhookSecret:           c.Reepay.WebhookSecret,
		ContinueURL:             c.Checkout.ContinueURL,
		CancelURL:               c.Checkout.CancelURL,
		ErrorURL:                c.Checkout.ErrorURL,
		Locale:                  c.Checkout.Locale,
		PaymentMethods:          c.Checkout.PaymentMethods,
		ButtonText:              c.Checkout.ButtonText,
		Capture:                 c.Checkout.Capture,
		Recurring:               c.Checkout.Recurring,
		TestMode:                c.Checkout.TestMode,
		BillingCompanyProperty:  c.Checkout.Billing.Company,
		BillingAddress1Property: c.Checkout.Billing.Address1,
		BillingAddress2Property: c.Checkout.Billing.Address2,
		BillingCityProperty:     c.Checkout.Billing.City,
		BillingZipProperty:      c.Checkout.Billing.Zip,
		BillingStateProperty:    c.Checkout.Billing.State,
		BillingPhoneProperty:    c.Checkout.Billing.Phone,
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
