package document

import (
	"context"

	"github.com/nasdf/odm/update"
	"github.com/nasdf/odm/value"
)

// Gateway writes documents to a store.
type Gateway interface {
	// InsertOrReplace writes the full document and returns its identity.
	InsertOrReplace(ctx context.Context, id ID, fields *value.Map) (ID, error)
	// ApplyOperations applies the operators to the stored document atomically.
	ApplyOperations(ctx context.Context, id ID, ops update.Operators) error
}

// Deleter removes documents from a store.
type Deleter interface {
	Delete(ctx context.Context, id ID) error
}

// Save writes the document to the gateway.
//
// A document that is not persisted is written as a whole and assigned an
// identity if it has none. A persisted document sends its pending operators
// in a single request. Pending operators are only cleared once the gateway
// confirms the write, so a failed Save can be retried. A persisted document
// without pending operators does not touch the gateway.
func (d *Document) Save(ctx context.Context, gw Gateway) error {
	if !d.IsPersisted() {
		return d.insert(ctx, gw)
	}
	if !d.tracker.HasPending() {
		return nil
	}
	return d.update(ctx, gw)
}

func (d *Document) insert(ctx context.Context, gw Gateway) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if err := d.trigger(ctx, BeforeInsert); err != nil {
		return err
	}
	if err := d.trigger(ctx, BeforeSave); err != nil {
		return err
	}
	id := d.id
	if id == "" {
		id = d.newID()
	}
	stored, err := gw.InsertOrReplace(ctx, id, d.fields.Clone())
	if err != nil {
		d.logger.WarnContext(ctx, "document insert failed", "id", id, "error", err)
		return err
	}
	if stored != "" {
		id = stored
	}
	d.id = id
	d.stored = true
	d.tracker.Clear()
	d.logger.DebugContext(ctx, "document inserted", "id", id)

	if err := d.trigger(ctx, AfterInsert); err != nil {
		return err
	}
	return d.trigger(ctx, AfterSave)
}

func (d *Document) update(ctx context.Context, gw Gateway) error {
	if err := d.Validate(ctx); err != nil {
		return err
	}
	if err := d.trigger(ctx, BeforeUpdate); err != nil {
		return err
	}
	if err := d.trigger(ctx, BeforeSave); err != nil {
		return err
	}
	ops := d.tracker.Peek()
	if err := gw.ApplyOperations(ctx, d.id, ops); err != nil {
		d.logger.WarnContext(ctx, "document update failed", "id", d.id, "operators", ops.Len(), "error", err)
		return err
	}
	d.tracker.Clear()
	d.logger.DebugContext(ctx, "document updated", "id", d.id, "operators", ops.Len())

	if err := d.trigger(ctx, AfterUpdate); err != nil {
		return err
	}
	return d.trigger(ctx, AfterSave)
}

// Delete removes the document from the store. The document itself is left unchanged.
func (d *Document) Delete(ctx context.Context, gw Deleter) error {
	if err := d.trigger(ctx, BeforeDelete); err != nil {
		return err
	}
	if d.id != "" {
		if err := gw.Delete(ctx, d.id); err != nil {
			return err
		}
		d.logger.DebugContext(ctx, "document deleted", "id", d.id)
	}
	return d.trigger(ctx, AfterDelete)
}
