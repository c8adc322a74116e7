package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/socialchef/sous/internal/db"
	"github.com/socialchef/sous/internal/logger"
)

func main() {
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] up|down|version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}
	logger := logger.New(env)

	ctx := context.Background()
	opts := db.DefaultPoolOptions()
	opts.MinConns = 1
	opts.Tracing = false
	pool, err := db.NewPool(ctx, *databaseURL, opts)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	m := db.NewMigrator(pool, logger)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			logger.Info("Migration version", "version", version, "dirty", dirty)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
}
