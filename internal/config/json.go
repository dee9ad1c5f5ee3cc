package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkrasnovs/microblog/internal/flagx"
	"github.com/dkrasnovs/microblog/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "2h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN            string         `json:"database_dsn"`
	SessionSecret          string         `json:"session_secret"`
	BcryptCost             int            `json:"bcrypt_cost"`
	RememberCookieValidity timex.Duration `json:"remember_cookie_validity"`
	ResetTokenValidity     timex.Duration `json:"reset_token_validity"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics. The caller is expected to
// merge these values with defaults and command-line flags as part of the
// full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.SessionSecret = c.SessionSecret
	config.BcryptCost = c.BcryptCost
	config.RememberCookieValidity = time.Duration(c.RememberCookieValidity.Duration)
	config.ResetTokenValidity = time.Duration(c.ResetTokenValidity.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
