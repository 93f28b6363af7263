package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Schema modes select which event-shape variant the service exposes. The
// FIFO engine is shared; only the persisted event granularity differs.
const (
	SchemaSimple   = "simple"
	SchemaDetailed = "detailed"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	SchemaMode          string
	FrontendURLEndsWith string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "3001"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = "./data/rsu.db"
	}

	mode := strings.ToLower(viper.GetString("SCHEMA_MODE"))
	if mode == "" {
		mode = SchemaSimple
	}
	if mode != SchemaSimple && mode != SchemaDetailed {
		return nil, fmt.Errorf("config: SCHEMA_MODE must be %q or %q, got %q", SchemaSimple, SchemaDetailed, mode)
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         dbURL,
		SchemaMode:          mode,
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
	}, nil
}
