// Package validate checks document fields against declarative rules.
package validate

import (
	"fmt"
	"net"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/value"
)

// LookupMX resolves the mail exchangers of a domain for the email rule.
var LookupMX = net.LookupMX

// Check reports whether the value of a field satisfies a rule.
type Check func(d *document.Document, field string, v value.Value) bool

// Rule is a named check applied to one or more fields.
type Rule struct {
	name    string
	fields  []string
	check   Check
	message string
	on      []string
	except  []string
	absent  bool
}

// NewRule returns a rule that runs check on each of the fields.
//
// The check is skipped for absent and null values.
func NewRule(name string, check Check, fields ...string) *Rule {
	return &Rule{name: name, fields: fields, check: check}
}

// Name returns the rule name used as key in validation errors.
func (r *Rule) Name() string {
	return r.name
}

// WithMessage sets the message reported when the rule fails.
//
// The message is formatted with the field path.
func (r *Rule) WithMessage(message string) *Rule {
	r.message = message
	return r
}

// OnScenario limits the rule to the given scenarios.
func (r *Rule) OnScenario(scenarios ...string) *Rule {
	r.on = append(r.on, scenarios...)
	return r
}

// ExceptScenario disables the rule in the given scenarios.
func (r *Rule) ExceptScenario(scenarios ...string) *Rule {
	r.except = append(r.except, scenarios...)
	return r
}

func (r *Rule) applies(scenario string) bool {
	if len(r.on) > 0 && !slices.Contains(r.on, scenario) {
		return false
	}
	return !slices.Contains(r.except, scenario)
}

func (r *Rule) errorMessage(field string) string {
	if r.message != "" {
		return fmt.Sprintf(r.message, field)
	}
	return fmt.Sprintf("field %q failed rule %q", field, r.name)
}

// Required fails when a field is absent or null.
func Required(fields ...string) *Rule {
	r := NewRule("required", func(d *document.Document, field string, v value.Value) bool {
		return v != nil
	}, fields...)
	r.absent = true
	return r.WithMessage("field %q required")
}

// Equals fails when a field is not equal to the given value.
func Equals(to value.Value, fields ...string) *Rule {
	return NewRule("equals", func(d *document.Document, field string, v value.Value) bool {
		return value.Equal(v, to)
	}, fields...).WithMessage("field %q must be equal to specified value")
}

// NotEquals fails when a field is equal to the given value.
func NotEquals(to value.Value, fields ...string) *Rule {
	return NewRule("not_equals", func(d *document.Document, field string, v value.Value) bool {
		return !value.Equal(v, to)
	}, fields...).WithMessage("field %q must not be equal to specified value")
}

// In fails when a field is not one of the allowed values.
func In(allowed []value.Value, fields ...string) *Rule {
	return NewRule("in", func(d *document.Document, field string, v value.Value) bool {
		return slices.ContainsFunc(allowed, func(a value.Value) bool {
			return value.Equal(a, v)
		})
	}, fields...).WithMessage("field %q not in range of allowed values")
}

// Numeric fails when a field is neither a number nor a numeric string.
func Numeric(fields ...string) *Rule {
	return NewRule("numeric", func(d *document.Document, field string, v value.Value) bool {
		if value.IsNumber(v) {
			return true
		}
		s, ok := v.(value.String)
		if !ok {
			return false
		}
		_, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		return err == nil
	}, fields...).WithMessage("field %q not numeric")
}

// Null fails when a field holds any value.
func Null(fields ...string) *Rule {
	r := NewRule("null", func(d *document.Document, field string, v value.Value) bool {
		return v == nil
	}, fields...)
	r.absent = true
	return r.WithMessage("field %q must be null")
}

// Regexp fails when a field is not a string matching the pattern.
func Regexp(pattern *regexp.Regexp, fields ...string) *Rule {
	return NewRule("regexp", func(d *document.Document, field string, v value.Value) bool {
		s, ok := v.(value.String)
		return ok && pattern.MatchString(string(s))
	}, fields...).WithMessage("field %q not match regexp")
}

// Email fails when a field is not a valid email address.
func Email(fields ...string) *Rule {
	return email(false, fields...)
}

// EmailMX fails when a field is not a valid email address or its domain has no mail exchanger.
func EmailMX(fields ...string) *Rule {
	return email(true, fields...)
}

func email(mx bool, fields ...string) *Rule {
	return NewRule("email", func(d *document.Document, field string, v value.Value) bool {
		s, ok := v.(value.String)
		if !ok {
			return false
		}
		addr, err := mail.ParseAddress(string(s))
		if err != nil || addr.Address != string(s) {
			return false
		}
		at := strings.LastIndexByte(addr.Address, '@')
		if at <= 0 || !strings.Contains(addr.Address[at+1:], ".") {
			return false
		}
		if !mx {
			return true
		}
		records, err := LookupMX(addr.Address[at+1:])
		return err == nil && len(records) > 0
	}, fields...).WithMessage("value of field %q is not email")
}

// Method fails when the behavior method of the document returns false or an error.
//
// The method is called with the field path and its value.
func Method(method string, fields ...string) *Rule {
	return NewRule(method, func(d *document.Document, field string, v value.Value) bool {
		out, err := d.Execute(method, field, v)
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, fields...)
}

// Func returns a rule that runs an arbitrary check.
func Func(name string, check Check, fields ...string) *Rule {
	return NewRule(name, check, fields...)
}
