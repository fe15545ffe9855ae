package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
	"gopkg.in/yaml.v3"

	"github.com/nasdf/odm"
	"github.com/nasdf/odm/document"
)

// Store operations of a mutation script. Every other op is an odm.Mutation.
const (
	stepSave   = "save"
	stepReload = "reload"
	stepDelete = "delete"
)

var errScript = errors.New("invalid script")

type script struct {
	Collection string           `yaml:"collection"`
	Documents  []scriptDocument `yaml:"documents"`
}

type scriptDocument struct {
	ID     string         `yaml:"id"`
	Fields map[string]any `yaml:"fields"`
	Steps  []step         `yaml:"steps"`
}

type step struct {
	odm.Mutation `yaml:",inline"`
}

// record is printed for every step that talks to the store.
type record struct {
	ID        string                    `yaml:"id"`
	Kind      string                    `yaml:"kind"`
	Operators map[string]map[string]any `yaml:"operators,omitempty"`
	Fields    map[string]any            `yaml:"fields,omitempty"`
}

func parseScript(data []byte) (*script, error) {
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if s.Collection == "" {
		return nil, fmt.Errorf("%w: missing collection", errScript)
	}
	for i, d := range s.Documents {
		for j, st := range d.Steps {
			switch st.Op {
			case stepSave, stepReload, stepDelete:
			default:
				if err := st.Validate(); err != nil {
					return nil, fmt.Errorf("%w: document %d step %d: %w", errScript, i, j, err)
				}
			}
		}
	}
	return &s, nil
}

type replayConfig struct {
	*cli.Command
	Config   string `cli:"name=config aliases=c desc='database config file'"`
	Car      string `cli:"name=car desc='write a CAR of the final root to this file (ipld backend)'"`
	LogLevel string `cli:"name=log-level desc='override the log level of the config'"`
}

// ReplayCommand returns the replay subcommand.
func ReplayCommand() *cli.Command {
	cfg := &replayConfig{}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "replay").
		WithSynopsis("replay [--config <file>] [--car <file>] <script> - Replay a mutation script").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *replayConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: odm replay [--config <file>] [--car <file>] <script>", cli.ErrUsage)
	}

	dbConfig, logger, err := loadConfig(cfg.Config, cfg.LogLevel)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	s, err := parseScript(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := odm.Open(ctx, dbConfig, odm.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := replay(ctx, db, s, cc.Out); err != nil {
		return err
	}
	if cfg.Car == "" {
		return nil
	}
	f, err := os.Create(cfg.Car)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}
	if err := db.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func replay(ctx context.Context, db *odm.DB, s *script, w io.Writer) error {
	coll, err := db.Collection(s.Collection)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	for i, sd := range s.Documents {
		d, err := coll.CreateDocument(sd.Fields)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		if sd.ID != "" {
			d.SetID(document.ID(sd.ID))
		}
		for j, st := range sd.Steps {
			rec, next, err := runStep(ctx, coll, d, st)
			if err != nil {
				return fmt.Errorf("document %d step %d (%s): %w", i, j, st.Op, err)
			}
			d = next
			if rec == nil {
				continue
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func runStep(ctx context.Context, coll *odm.Collection, d *document.Document, st step) (*record, *document.Document, error) {
	switch st.Op {
	case stepSave:
		rec := &record{Kind: "noop"}
		switch {
		case !d.IsPersisted():
			rec.Kind = "insert"
			rec.Fields = d.Map()
		case d.HasPending():
			rec.Kind = "update"
			rec.Operators = odm.OperatorsMap(d.Pending())
		}
		if err := coll.SaveDocument(ctx, d); err != nil {
			return nil, d, err
		}
		rec.ID = d.ID().String()
		return rec, d, nil

	case stepReload:
		loaded, err := coll.GetDocument(ctx, d.ID())
		if err != nil {
			return nil, d, err
		}
		return &record{ID: loaded.ID().String(), Kind: "load", Fields: loaded.Map()}, loaded, nil

	case stepDelete:
		if err := coll.DeleteDocument(ctx, d); err != nil {
			return nil, d, err
		}
		return &record{ID: d.ID().String(), Kind: "delete"}, d, nil
	}
	return nil, d, st.Apply(d)
}
