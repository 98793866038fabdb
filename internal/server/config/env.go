package config

import (
	"os"
	"time"
)

// parseEnv overlays Config fields from the process environment. Unset
// variables leave the current value in place.
//
// Recognized variables:
//
//	ADDRESS                 HTTP bind address
//	DATABASE_DSN            PostgreSQL DSN
//	SECRET_KEY              JWT HMAC secret
//	ACCESS_TOKEN_VALIDITY   access token lifetime (e.g. "24h")
//	LIVEPEER_API_URL        provider API base URL
//	LIVEPEER_API_KEY        provider API key
//	PLAYBACK_CDN_TEMPLATE   fallback HLS URL template
//	VERIFICATION_TOKEN_TTL  verification code lifetime (e.g. "15m")
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
//	DEBUG                   "true" enables debug responses
func parseEnv(config *Config) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString(&config.EndpointAddrHTTP, "ADDRESS")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.SecretKey, "SECRET_KEY")
	setDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setString(&config.LivepeerAPIBaseURL, "LIVEPEER_API_URL")
	setString(&config.LivepeerAPIKey, "LIVEPEER_API_KEY")
	setString(&config.PlaybackCDNTemplate, "PLAYBACK_CDN_TEMPLATE")
	setDuration(&config.VerificationTokenTTL, "VERIFICATION_TOKEN_TTL")
	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	if v, ok := os.LookupEnv("DEBUG"); ok {
		config.Debug = v == "true" || v == "1"
	}
}
