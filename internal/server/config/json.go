package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/streamfi/streamfi/internal/flagx"
	"github.com/streamfi/streamfi/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Interval fields use timex.Duration so both "15m" strings and integer
// nanoseconds parse. After unmarshalling, fields are copied into the runtime
// Config.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LivepeerAPIBaseURL          string         `json:"livepeer_api_base_url"`
	LivepeerAPIKey              string         `json:"livepeer_api_key"`
	PlaybackCDNTemplate         string         `json:"playback_cdn_template"`
	VerificationTokenTTL        timex.Duration `json:"verification_token_ttl"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	Debug                       bool           `json:"debug"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, when present. A missing flag means no file is loaded;
// an unreadable or invalid file panics, as startup cannot proceed with a
// half-applied configuration.
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

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.LivepeerAPIBaseURL = c.LivepeerAPIBaseURL
	config.LivepeerAPIKey = c.LivepeerAPIKey
	config.PlaybackCDNTemplate = c.PlaybackCDNTemplate
	config.VerificationTokenTTL = time.Duration(c.VerificationTokenTTL.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.Debug = c.Debug
}
