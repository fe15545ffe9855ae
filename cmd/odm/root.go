package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
)

const usageText = `odm - document mutation tracking

Usage:
  odm replay [--config <file>] [--car <file>] <script>   Replay a mutation script
  odm serve [--config <file>] [--addr <addr>]             Serve documents over http

A script names a collection and a list of documents. Each document is
created from its fields and then walked through its steps:

  collection: users
  documents:
    - fields: {name: ada, visits: 1}
      steps:
        - op: save
        - op: increment
          path: visits
          value: 2
        - op: push
          path: tags
          value: admin
        - op: save

Every save prints the operators sent to the store.`

// Root returns the root command of odm.
func Root() *cli.Command {
	return cli.NewCommand("odm").
		WithSynopsis("odm - document mutation tracking").
		WithDescription(usageText).
		WithSubs(
			ReplayCommand(),
			ServeCommand(),
		)
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
