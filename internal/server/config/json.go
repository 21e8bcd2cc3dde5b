package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dayli-app/api/internal/flagx"
	"github.com/dayli-app/api/internal/timex"
)

// JsonConfig is the DTO for reading a JSON configuration file. Duration
// fields accept both strings like "96h" and integer nanoseconds; after
// unmarshalling the values are copied into the runtime Config.
//
// Empty fields are treated as "not set" and leave the current value alone,
// so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`

	StripeAPIKey        string `json:"stripe_api_key"`
	StripeWebhookSecret string `json:"stripe_webhook_secret"`
	StripePriceID       string `json:"stripe_price_id"`

	CheckoutSuccessURL string `json:"checkout_success_url"`
	CheckoutCancelURL  string `json:"checkout_cancel_url"`
	PortalReturnURL    string `json:"portal_return_url"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file given via the
// -c/-config flags into the provided Config. If no flag is set, nothing is
// loaded. An unreadable or invalid file panics: a server started with a
// broken config file should not come up.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIfNotEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIfNotEmpty(&config.EndpointAddr, c.EndpointAddr)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	if c.SessionTokenValidityDuration.Duration != 0 {
		config.SessionTokenValidityDuration = time.Duration(c.SessionTokenValidityDuration.Duration)
	}

	setIfNotEmpty(&config.StripeAPIKey, c.StripeAPIKey)
	setIfNotEmpty(&config.StripeWebhookSecret, c.StripeWebhookSecret)
	setIfNotEmpty(&config.StripePriceID, c.StripePriceID)

	setIfNotEmpty(&config.CheckoutSuccessURL, c.CheckoutSuccessURL)
	setIfNotEmpty(&config.CheckoutCancelURL, c.CheckoutCancelURL)
	setIfNotEmpty(&config.PortalReturnURL, c.PortalReturnURL)

	setIfNotEmpty(&config.S3RootUser, c.S3RootUser)
	setIfNotEmpty(&config.S3RootPassword, c.S3RootPassword)
	setIfNotEmpty(&config.S3Bucket, c.S3Bucket)
	setIfNotEmpty(&config.S3Region, c.S3Region)
	setIfNotEmpty(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
