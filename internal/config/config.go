package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment variables recognized by the connectors. Dotted viper keys map
// onto these names through the "." -> "_" replacer in Load.
const (
	EnvMongoURI         = "MONGO_URI"
	EnvMongoDB          = "MONGO_DB"
	EnvCollectionName   = "COLLECTION_NAME"
	EnvOTXBase          = "OTX_BASE"
	EnvOTXAPIKey        = "OTX_API_KEY"
	EnvNetworkCalcBase  = "NETWORKCALC_BASE_URL"
	EnvCollectionPrefix = "NETWORKCALC_COLLECTION_PREFIX"
	EnvRedisURL         = "REDIS_URL"
	EnvLogLevel         = "LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	Mongo       MongoConfig
	Redis       RedisConfig
	Log         LogConfig
	OTX         OTXConfig
	NetworkCalc NetworkCalcConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL string
}

type LogConfig struct {
	Level string
}

type OTXConfig struct {
	BaseURL    string
	APIKey     string
	Collection string
}

type NetworkCalcConfig struct {
	BaseURL          string
	CollectionPrefix string
}

// MissingVarError is returned when required environment variables are unset.
// It is fatal at startup: nothing is fetched or stored before it surfaces.
type MissingVarError struct {
	Vars []string
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// Load resolves the current configuration from the environment. Values are
// read through viper so command flags bound to the same keys take precedence
// over environment variables.
func Load() Config {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set defaults
	viper.SetDefault("otx.base", "https://otx.alienvault.com/api/v1")
	viper.SetDefault("networkcalc.base.url", "https://networkcalc.com/api/v1")
	viper.SetDefault("networkcalc.collection.prefix", "networkcalc")
	viper.SetDefault("log.level", "info")

	return Config{
		Mongo: MongoConfig{
			URI:      viper.GetString("mongo.uri"),
			Database: viper.GetString("mongo.db"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
		OTX: OTXConfig{
			BaseURL:    viper.GetString("otx.base"),
			APIKey:     viper.GetString("otx.api.key"),
			Collection: viper.GetString("collection.name"),
		},
		NetworkCalc: NetworkCalcConfig{
			BaseURL:          viper.GetString("networkcalc.base.url"),
			CollectionPrefix: viper.GetString("networkcalc.collection.prefix"),
		},
	}
}

// RequireOTX validates the variables the OTX connector cannot run without.
func (c Config) RequireOTX() error {
	var missing []string
	if c.Mongo.URI == "" {
		missing = append(missing, EnvMongoURI)
	}
	if c.Mongo.Database == "" {
		missing = append(missing, EnvMongoDB)
	}
	if c.OTX.Collection == "" {
		missing = append(missing, EnvCollectionName)
	}
	if c.OTX.APIKey == "" {
		missing = append(missing, EnvOTXAPIKey)
	}
	if len(missing) > 0 {
		return &MissingVarError{Vars: missing}
	}
	return nil
}

// RequireNetworkCalc validates the variables the NetworkCalc connector needs.
// The API itself is unauthenticated, so only the storage side is mandatory.
func (c Config) RequireNetworkCalc() error {
	var missing []string
	if c.Mongo.URI == "" {
		missing = append(missing, EnvMongoURI)
	}
	if c.Mongo.Database == "" {
		missing = append(missing, EnvMongoDB)
	}
	if len(missing) > 0 {
		return &MissingVarError{Vars: missing}
	}
	return nil
}
