package validate

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/value"
)

// Expr returns a rule that evaluates a boolean expression for each field.
//
// The expression sees the field value as "value", the field path as "field"
// and the document fields as "doc", along with every top level field by name.
func Expr(name, expression string, fields ...string) (*Rule, error) {
	if expression == "" {
		return nil, fmt.Errorf("rule %s: expression must not be empty", name)
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("rule %s: compile %q: %w", name, expression, err)
	}
	return NewRule(name, func(d *document.Document, field string, v value.Value) bool {
		return runBool(program, environment(d, field, v))
	}, fields...), nil
}

func environment(d *document.Document, field string, v value.Value) map[string]any {
	doc := d.Map()
	env := make(map[string]any, len(doc)+3)
	for key, val := range doc {
		env[key] = val
	}
	env["doc"] = doc
	env["field"] = field
	env["value"] = value.Go(v)
	return env
}

func runBool(program *exprvm.Program, env map[string]any) bool {
	out, err := exprlang.Run(program, env)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
