package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/nasdf/odm"
	"github.com/nasdf/odm/http"
)

type serveConfig struct {
	*cli.Command
	Config   string `cli:"name=config aliases=c desc='database config file'"`
	Addr     string `cli:"name=addr desc='address to listen on'"`
	LogLevel string `cli:"name=log-level desc='override the log level of the config'"`
}

// ServeCommand returns the serve subcommand.
func ServeCommand() *cli.Command {
	cfg := &serveConfig{Addr: ":8080"}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "serve").
		WithSynopsis("serve [--config <file>] [--addr <addr>] - Serve documents over http").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *serveConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: usage: odm serve [--config <file>] [--addr <addr>]", cli.ErrUsage)
	}
	dbConfig, logger, err := loadConfig(cfg.Config, cfg.LogLevel)
	if err != nil {
		return err
	}
	db, err := odm.Open(context.Background(), dbConfig, odm.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("serving documents", "addr", cfg.Addr, "backend", dbConfig.Backend)
	return http.ListenAndServe(db, cfg.Addr)
}

// loadConfig reads the database config at path, or the defaults when path is
// empty, and returns it with a logger at the configured level.
func loadConfig(path, level string) (odm.Config, *slog.Logger, error) {
	dbConfig := odm.DefaultConfig()
	if path != "" {
		var err error
		if dbConfig, err = odm.LoadConfig(path); err != nil {
			return odm.Config{}, nil, err
		}
	}
	if level != "" {
		dbConfig.LogLevel = level
	}
	lvl, err := odm.ParseLevel(dbConfig.LogLevel)
	if err != nil {
		return odm.Config{}, nil, err
	}
	return dbConfig, newLogger(os.Stderr, lvl), nil
}
