package main

import (
	"context"
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/config"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/database"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/logger"
)

var opts = struct {
	Host       string `long:"db.host" env:"DB_HOST" default:"localhost" description:"postgres host"`
	Port       int    `long:"db.port" env:"DB_PORT" default:"5432" description:"postgres port"`
	User       string `long:"db.user" env:"DB_USER" default:"postgres" description:"postgres user"`
	Password   string `long:"db.password" env:"DB_PASSWORD" description:"postgres password"`
	Name       string `long:"db.name" env:"DB_NAME" default:"spark" description:"postgres database"`
	SSLMode    string `long:"db.sslmode" env:"DB_SSL_MODE" default:"disable" description:"postgres ssl mode"`
	Migrations string `long:"migrations" env:"DB_MIGRATIONS_PATH" default:"migrations" description:"migrations directory"`
	Steps      int    `long:"steps" description:"apply n steps, negative rolls back; 0 migrates to the latest version"`
	LogLevel   string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"log level"`
}{}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "migrate"
	parser.LongDescription = "Applies spark-backend postgres migrations"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log, err := logger.New(opts.LogLevel, false)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.NewPostgresDB(context.Background(), &config.DatabaseConfig{
		Host:     opts.Host,
		Port:     opts.Port,
		User:     opts.User,
		Password: opts.Password,
		DBName:   opts.Name,
		SSLMode:  opts.SSLMode,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if opts.Steps == 0 {
		err = database.Migrate(db, opts.Migrations, log)
	} else {
		err = database.MigrateSteps(db, opts.Migrations, opts.Steps)
	}
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	log.Info("migration finished", zap.Int("steps", opts.Steps))
}
