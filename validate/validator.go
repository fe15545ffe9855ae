package validate

import (
	"github.com/nasdf/odm/document"
)

// Validator runs rules against a document.
type Validator struct {
	rules []*Rule
}

var _ document.Validator = (*Validator)(nil)

// New returns a validator with the given rules.
func New(rules ...*Rule) *Validator {
	return &Validator{rules: rules}
}

// Add appends rules to the validator.
func (v *Validator) Add(rules ...*Rule) {
	v.rules = append(v.rules, rules...)
}

// Rules returns the rules of the validator.
func (v *Validator) Rules() []*Rule {
	return v.rules
}

// Validate returns the failed rules keyed by field and rule name.
func (v *Validator) Validate(d *document.Document) map[string]map[string]string {
	var errs map[string]map[string]string
	for _, r := range v.rules {
		if !r.applies(d.Scenario()) {
			continue
		}
		for _, field := range r.fields {
			val := d.Get(field)
			if val == nil && !r.absent {
				continue
			}
			if r.check(d, field, val) {
				continue
			}
			if errs == nil {
				errs = make(map[string]map[string]string)
			}
			if errs[field] == nil {
				errs[field] = make(map[string]string)
			}
			errs[field][r.name] = r.errorMessage(field)
		}
	}
	return errs
}
