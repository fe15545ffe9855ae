// Package odm maps documents of a configured store to mutation tracking documents.
package odm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/kv"
	"github.com/nasdf/odm/link"
	"github.com/nasdf/odm/mongo"
	"github.com/nasdf/odm/sqldb"
	"github.com/nasdf/odm/storage"
	"github.com/nasdf/odm/validate"
	"github.com/nasdf/odm/value"
)

var (
	// ErrInvalidConfig is returned for configs naming unknown settings.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrExportUnsupported is returned when exporting a backend that is not content addressed.
	ErrExportUnsupported = errors.New("export requires the ipld backend")
)

// Gateway is a store for the documents of one collection.
type Gateway interface {
	document.Gateway
	document.Deleter
	Find(ctx context.Context, id document.ID) (*value.Map, error)
}

// DB is an open database.
type DB struct {
	config  Config
	logger  *slog.Logger
	gateway func(collection string) Gateway
	close   func() error
	links   *link.Store
	schema  *ast.Schema
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger of the database, its gateways and documents.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open opens the database described by the config.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db := &DB{
		config: cfg,
		logger: slog.Default(),
		close:  func() error { return nil },
	}
	for _, opt := range opts {
		opt(db)
	}
	if cfg.Schema != "" {
		schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: cfg.Schema})
		if err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
		db.schema = schema
	}

	switch cfg.Backend {
	case BackendMemory:
		s := storage.NewMemory()
		db.gateway = func(c string) Gateway {
			return kv.New(s, c, kv.WithLogger(db.logger))
		}

	case BackendIPLD:
		db.links = link.NewStore(storage.NewMemory())
		db.gateway = func(c string) Gateway {
			return link.NewGateway(db.links, c, link.WithLogger(db.logger))
		}

	case BackendSQLite, BackendPostgres:
		driver := sqldb.DriverSQLite
		if cfg.Backend == BackendPostgres {
			driver = sqldb.DriverPostgres
		}
		sqlDB, err := sqldb.Open(ctx, driver, cfg.DSN, sqldb.WithLogger(db.logger))
		if err != nil {
			return nil, err
		}
		db.close = sqlDB.Close
		db.gateway = func(c string) Gateway {
			return sqlDB.Gateway(c)
		}

	case BackendMongo:
		ses, err := mongo.Dial(cfg.Mongo, mongo.WithLogger(db.logger))
		if err != nil {
			return nil, err
		}
		db.close = func() error {
			ses.Close()
			return nil
		}
		db.gateway = func(c string) Gateway {
			return ses.Gateway(c)
		}
	}
	db.logger.DebugContext(ctx, "opened database", "backend", cfg.Backend, "id", cfg.ID)
	return db, nil
}

// Close releases the resources of the database.
func (db *DB) Close() error {
	return db.close()
}

// Config returns the config the database was opened with.
func (db *DB) Config() Config {
	return db.config
}

// Collection returns the named collection.
//
// If the schema declares an object type with the same name, documents of
// the collection are validated against it.
func (db *DB) Collection(name string) (*Collection, error) {
	c := &Collection{
		name:    name,
		db:      db,
		gateway: db.gateway(name),
	}
	if db.schema != nil {
		if def, ok := db.schema.Types[name]; ok && def.Kind == ast.Object {
			v, err := validate.FromSchema(db.config.Schema, name)
			if err != nil {
				return nil, err
			}
			c.validator = v
		}
	}
	return c, nil
}

// Export writes a CAR of the current root of an ipld database.
func (db *DB) Export(ctx context.Context, out io.Writer) error {
	if db.links == nil {
		return ErrExportUnsupported
	}
	return db.links.ExportHead(ctx, out)
}
