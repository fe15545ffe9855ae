package document

import "fmt"

// Method is a callable extension provided by a behavior.
type Method func(d *Document, args ...any) (any, error)

// Behavior provides named methods that extend a document.
type Behavior interface {
	Methods() map[string]Method
}

// Methods is a Behavior backed by a plain map.
type Methods map[string]Method

func (m Methods) Methods() map[string]Method {
	return m
}

type attachedBehavior struct {
	name     string
	behavior Behavior
}

// AttachBehavior attaches a behavior under the given name, replacing any behavior with the same name.
func (d *Document) AttachBehavior(name string, b Behavior) {
	d.DetachBehavior(name)
	d.behaviors = append(d.behaviors, attachedBehavior{name: name, behavior: b})
}

// DetachBehavior removes the behavior with the given name.
func (d *Document) DetachBehavior(name string) {
	for i, b := range d.behaviors {
		if b.name == name {
			d.behaviors = append(d.behaviors[:i], d.behaviors[i+1:]...)
			return
		}
	}
}

// HasMethod returns true if an attached behavior provides the method.
func (d *Document) HasMethod(method string) bool {
	_, ok := d.method(method)
	return ok
}

// Execute calls the method of the first attached behavior that provides it.
func (d *Document) Execute(method string, args ...any) (any, error) {
	fn, ok := d.method(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchMethod, method)
	}
	return fn(d, args...)
}

func (d *Document) method(name string) (Method, bool) {
	for _, b := range d.behaviors {
		fn, ok := b.behavior.Methods()[name]
		if ok {
			return fn, true
		}
	}
	return nil, false
}
