// Package mongo persists documents in MongoDB.
//
// Incremental operators are sent as a single update request using the
// native $set, $unset, $inc, $push and $pull operators.
package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gopkg.in/mgo.v2"
)

// Config provides configuration for connecting to a db.
type Config struct {
	Host     string        `yaml:"host"`
	AuthDB   string        `yaml:"auth_db"`
	DB       string        `yaml:"db"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultTimeout is the dial timeout used when the config has none.
const DefaultTimeout = 60 * time.Second

// ErrInvalidSession is returned when the session has been closed.
var ErrInvalidSession = errors.New("invalid session")

// Session is a pool of connections to a MongoDB database.
type Session struct {
	config Config
	logger *slog.Logger
	m      *mgo.Session
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger of the session and its gateways.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Dial connects to the database described by the config.
func Dial(c Config, opts ...Option) (*Session, error) {
	s := &Session{
		config: c,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	info := mgo.DialInfo{
		Addrs:    []string{c.Host},
		Timeout:  timeout,
		Database: c.AuthDB,
		Username: c.User,
		Password: c.Password,
	}
	s.logger.Debug("connecting to mongo", "host", c.Host, "db", c.DB)
	ses, err := mgo.DialWithInfo(&info)
	if err != nil {
		return nil, err
	}
	ses.SetMode(mgo.Monotonic, true)
	s.m = ses
	return s, nil
}

// Close releases the connections of the session.
func (s *Session) Close() {
	if s.m != nil {
		s.m.Close()
		s.m = nil
	}
}

// Gateway returns a gateway for the named collection.
func (s *Session) Gateway(collection string) *Gateway {
	return &Gateway{
		session:    s,
		collection: collection,
		logger:     s.logger,
	}
}

// execute runs fn with the named collection on a copy of the session.
func (s *Session) execute(ctx context.Context, collection string, fn func(*mgo.Collection) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.m == nil {
		return ErrInvalidSession
	}
	ses := s.m.Copy()
	defer ses.Close()
	return fn(ses.DB(s.config.DB).C(collection))
}
