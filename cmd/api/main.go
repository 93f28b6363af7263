package main

import (
	"github.com/rs/zerolog/log"

	"rsutrack-backend/internal/config"
	"rsutrack-backend/internal/infrastructure/database"
	"rsutrack-backend/internal/interfaces/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.DatabaseURL).Msg("database open failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	app := router.CreateApp(cfg, db)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("schemaMode", cfg.SchemaMode).
		Msg("server starting")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
