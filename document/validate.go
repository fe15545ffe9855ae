package document

import "context"

// Validator checks the fields of a document.
//
// Validate returns the failed rules keyed by field path and rule name.
type Validator interface {
	Validate(d *Document) map[string]map[string]string
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(d *Document) map[string]map[string]string

func (f ValidatorFunc) Validate(d *Document) map[string]map[string]string {
	return f(d)
}

// SetValidator sets the validator run before every write.
func (d *Document) SetValidator(v Validator) {
	d.validator = v
}

// Validate runs the validator and returns a *ValidationError if the
// document has validation or reported errors.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.trigger(ctx, BeforeValidate); err != nil {
		return err
	}
	d.errors = nil
	if d.validator != nil {
		d.errors = d.validator.Validate(d)
	}
	if d.HasErrors() {
		if err := d.trigger(ctx, ValidateError); err != nil {
			return err
		}
		return &ValidationError{Errors: d.Errors()}
	}
	return d.trigger(ctx, AfterValidate)
}

// IsValid returns true if Validate succeeds.
func (d *Document) IsValid(ctx context.Context) bool {
	return d.Validate(ctx) == nil
}
