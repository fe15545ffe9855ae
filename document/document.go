// Package document maps schemaless records to documents that track field level mutations.
//
// A new document is written to its Gateway as a whole. Once persisted, every
// mutation updates the local fields and records an incremental operator, and
// Save sends only the accumulated operators.
package document

import (
	"context"
	"log/slog"
	"maps"

	"github.com/nasdf/odm/selector"
	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Document is the in-memory state of a single record.
//
// A Document is not safe for concurrent use.
type Document struct {
	fields  *value.Map
	initial *value.Map
	id      ID
	stored  bool
	tracker update.Tracker

	newID     IDGenerator
	logger    *slog.Logger
	listeners map[Event][]Listener
	behaviors []attachedBehavior

	validator       Validator
	scenario        string
	errors          map[string]map[string]string
	triggeredErrors map[string]map[string]string
}

// New returns a new document that has never been persisted.
func New(opts ...Option) *Document {
	d := &Document{
		newID:  NewObjectID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	ctx := context.Background()
	// construct listeners cannot abort construction
	_ = d.trigger(ctx, BeforeConstruct)
	d.fields = value.NewMap()
	if d.initial != nil {
		d.fields = d.initial.Clone()
		d.initial = nil
	}
	_ = d.trigger(ctx, AfterConstruct)
	return d
}

// Load returns a persisted document with the given identity and stored fields.
func Load(id ID, fields *value.Map, opts ...Option) *Document {
	d := New(append(opts[:len(opts):len(opts)], WithFields(fields))...)
	d.id = id
	d.stored = id != ""
	return d
}

// ID returns the identity of the document.
func (d *Document) ID() ID {
	return d.id
}

// SetID sets the identity of the document.
//
// The document is not persisted until the next Save writes it with this identity.
func (d *Document) SetID(id ID) {
	if id == d.id {
		return
	}
	d.id = id
	d.stored = false
	d.tracker.Clear()
}

// IsPersisted returns true if the document has an identity that was loaded or saved and not changed since.
func (d *Document) IsPersisted() bool {
	return d.id != "" && d.stored
}

// String returns the identity of the document.
func (d *Document) String() string {
	return d.id.String()
}

// Get returns the value at the given selector.
//
// Invalid selectors, absent paths and null values all return nil. Lists and
// maps are copies, so changing them does not change the document.
func (d *Document) Get(sel string) value.Value {
	p, err := selector.Parse(sel)
	if err != nil {
		return nil
	}
	return value.Clone(selector.Get(d.fields, p))
}

// FieldValue returns the value at the given selector for relation resolution.
func (d *Document) FieldValue(sel string) value.Value {
	return d.Get(sel)
}

// Fields returns a copy of the current fields.
func (d *Document) Fields() *value.Map {
	return d.fields.Clone()
}

// Map returns the plain go representation of the fields including the identity under "_id".
func (d *Document) Map() map[string]any {
	out := value.Go(d.fields).(map[string]any)
	if d.id != "" {
		out["_id"] = d.id.String()
	}
	return out
}

// HasPending returns true if tracked operators are waiting for the next Save.
func (d *Document) HasPending() bool {
	return d.tracker.HasPending()
}

// Pending returns a copy of the tracked operators.
func (d *Document) Pending() update.Operators {
	return d.tracker.Peek()
}

// Scenario returns the validation scenario.
func (d *Document) Scenario() string {
	return d.scenario
}

// SetScenario sets the validation scenario.
func (d *Document) SetScenario(scenario string) {
	d.scenario = scenario
}

// ReportError records a validation error for the given field and rule.
func (d *Document) ReportError(field, rule, message string) {
	d.triggeredErrors = addError(d.triggeredErrors, field, rule, message)
}

// ReportErrors records all of the given validation errors.
func (d *Document) ReportErrors(errs map[string]map[string]string) {
	for field, rules := range errs {
		for rule, message := range rules {
			d.ReportError(field, rule, message)
		}
	}
}

// Errors returns the errors of the last validation merged with the reported errors.
func (d *Document) Errors() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, src := range []map[string]map[string]string{d.errors, d.triggeredErrors} {
		for field, rules := range src {
			if out[field] == nil {
				out[field] = make(map[string]string)
			}
			maps.Copy(out[field], rules)
		}
	}
	return out
}

// HasErrors returns true if any validation or reported error exists.
func (d *Document) HasErrors() bool {
	return len(d.errors) > 0 || len(d.triggeredErrors) > 0
}

// ClearErrors removes all validation and reported errors.
func (d *Document) ClearErrors() {
	d.errors = nil
	d.triggeredErrors = nil
}

func addError(errs map[string]map[string]string, field, rule, message string) map[string]map[string]string {
	if errs == nil {
		errs = make(map[string]map[string]string)
	}
	if errs[field] == nil {
		errs[field] = make(map[string]string)
	}
	errs[field][rule] = message
	return errs
}
