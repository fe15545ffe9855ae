package document

import (
	"log/slog"

	"github.com/nasdf/odm/value"
)

// Option configures a Document.
type Option func(*Document)

// WithFields sets the initial fields of the document.
func WithFields(fields *value.Map) Option {
	return func(d *Document) {
		d.initial = fields
	}
}

// WithIDGenerator sets the function used to assign an identity on first save.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Document) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// WithLogger sets the logger of the document.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithListener registers a lifecycle listener before the document is constructed.
func WithListener(event Event, fn Listener) Option {
	return func(d *Document) {
		d.On(event, fn)
	}
}

// WithBehavior attaches a named behavior.
func WithBehavior(name string, b Behavior) Option {
	return func(d *Document) {
		d.AttachBehavior(name, b)
	}
}

// WithValidator sets the validator run before every write.
func WithValidator(v Validator) Option {
	return func(d *Document) {
		d.validator = v
	}
}

// WithScenario sets the initial validation scenario.
func WithScenario(scenario string) Option {
	return func(d *Document) {
		d.scenario = scenario
	}
}
