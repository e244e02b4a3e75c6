package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/natpio/nasz-budzet/internal/adapter/repository"
	"github.com/natpio/nasz-budzet/internal/config"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
	"github.com/natpio/nasz-budzet/internal/usecase/seeder"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""
)

// CLI is the root kong grammar
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Globals
	Commands
}

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	var cli CLI
	parser, err := newParser(&cli, os.Stdout, os.Stderr, os.Exit)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := run(kctx, &cli.Globals, os.Stdout, os.Stderr); err != nil {
		kctx.FatalIfErrorf(err)
	}
}

// run opens the configured store, executes the selected command and closes the store
func run(kctx *kong.Context, globals *Globals, stdout, stderr io.Writer) error {
	cfg := config.Load()
	if globals.Backend != "" {
		cfg.DataBackend = globals.Backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.Config{
		Level:  zerolog.WarnLevel,
		Format: cfg.LogFormat,
		Output: stderr,
	})

	store, err := repository.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := seeder.NewSavingsSeeder(store, cfg.OpeningBalance(), time.Now).Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed opening savings: %w", err)
	}

	app := &App{
		Service: budget.NewService(store, nil, time.Now, logger),
		Out:     stdout,
		Compact: globals.Compact,
	}
	return kctx.Run(app)
}
