package document

import "context"

// Event is a lifecycle hook point of a document.
type Event uint8

const (
	BeforeConstruct Event = iota
	AfterConstruct
	BeforeValidate
	AfterValidate
	ValidateError
	BeforeInsert
	AfterInsert
	BeforeUpdate
	AfterUpdate
	BeforeSave
	AfterSave
	BeforeDelete
	AfterDelete
)

var eventNames = [...]string{
	BeforeConstruct: "beforeConstruct",
	AfterConstruct:  "afterConstruct",
	BeforeValidate:  "beforeValidate",
	AfterValidate:   "afterValidate",
	ValidateError:   "validateError",
	BeforeInsert:    "beforeInsert",
	AfterInsert:     "afterInsert",
	BeforeUpdate:    "beforeUpdate",
	AfterUpdate:     "afterUpdate",
	BeforeSave:      "beforeSave",
	AfterSave:       "afterSave",
	BeforeDelete:    "beforeDelete",
	AfterDelete:     "afterDelete",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Listener handles a lifecycle event.
//
// An error returned from a Before* listener aborts the operation.
type Listener func(ctx context.Context, d *Document) error

// On registers a listener for the given event.
//
// Listeners for an event run synchronously in registration order.
func (d *Document) On(event Event, fn Listener) {
	if d.listeners == nil {
		d.listeners = make(map[Event][]Listener)
	}
	d.listeners[event] = append(d.listeners[event], fn)
}

// trigger runs the listeners of the given event and stops at the first error.
func (d *Document) trigger(ctx context.Context, event Event) error {
	for _, fn := range d.listeners[event] {
		if err := fn(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
