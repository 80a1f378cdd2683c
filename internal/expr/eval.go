// Package expr evaluates compiled expression trees. Evaluation is pure:
// given the same Expr and Context, Evaluate always returns the same
// result with no observable side effect.
package expr

import (
	"fmt"
	"strings"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

// StepOutputFunc resolves a completed step's named output attribute.
// Implementations should return a KindReference engineerr.Error if the
// step or attribute does not exist.
type StepOutputFunc func(stepName, attr string) (any, error)

// Context carries the values an expression may reference: workflow
// inputs, completed step outputs, and (inside a foreach block) the
// current iteration variable.
type Context struct {
	Inputs        map[string]any
	GetStepOutput StepOutputFunc
	ForeachVar    string
	HasForeach    bool
	ForeachValue  any

	// StepID identifies the step being evaluated, for error messages only.
	StepID string
}

// Evaluate computes the value of expr under ctx.
func Evaluate(e program.Expr, ctx Context) (any, error) {
	if e.IsZero() {
		return nil, nil
	}

	switch e.Kind {
	case program.ExprString:
		return stringValue(e.Value), nil
	case program.ExprInt:
		return intValue(e.Value), nil
	case program.ExprDouble:
		return floatValue(e.Value), nil
	case program.ExprBoolean:
		return boolValue(e.Value), nil
	case program.ExprNull:
		return nil, nil
	case program.ExprInputRef:
		return evalInputRef(e, ctx)
	case program.ExprStepRef:
		return evalStepRef(e, ctx)
	case program.ExprConcat:
		return evalConcat(e, ctx)
	case program.ExprBinary:
		return evalBinary(e, ctx)
	case program.ExprUnary:
		return evalUnary(e, ctx)
	case program.ExprArrayLiteral:
		return evalArrayLiteral(e, ctx)
	case program.ExprMapLiteral:
		return evalMapLiteral(e, ctx)
	case program.ExprIndex:
		return evalIndex(e, ctx)
	default:
		if e.Value != nil {
			return e.Value, nil
		}
		return nil, engineerr.Evaluation("expr.Evaluate", fmt.Sprintf("unknown expression type %q", e.Kind))
	}
}

func evalInputRef(e program.Expr, ctx Context) (any, error) {
	if len(e.Path) == 0 {
		return nil, engineerr.Reference("expr.InputRef", "empty input reference path")
	}
	field := e.Path[0]

	var value any
	if ctx.HasForeach && ctx.ForeachVar != "" && field == ctx.ForeachVar {
		value = ctx.ForeachValue
	} else {
		v, ok := ctx.Inputs[field]
		if !ok {
			return nil, engineerr.Reference("expr.InputRef", fmt.Sprintf("input %q not found", field))
		}
		value = v
	}

	return resolvePath(value, e.Path[1:], "$."+field)
}

func evalStepRef(e program.Expr, ctx Context) (any, error) {
	if len(e.Path) < 2 {
		return nil, engineerr.Reference("expr.StepRef", "step reference requires at least step.attribute")
	}
	stepName, attr := e.Path[0], e.Path[1]

	if ctx.GetStepOutput == nil {
		return nil, engineerr.Reference("expr.StepRef", fmt.Sprintf("%s.%s not resolvable: no step output source", stepName, attr))
	}
	value, err := ctx.GetStepOutput(stepName, attr)
	if err != nil {
		return nil, engineerr.New(engineerr.KindReference, "expr.StepRef", fmt.Sprintf("%s.%s: %s", stepName, attr, err.Error()), err)
	}

	return resolvePath(value, e.Path[2:], stepName+"."+attr)
}

func resolvePath(value any, remaining []string, basePath string) (any, error) {
	for _, segment := range remaining {
		if value == nil {
			return nil, engineerr.Reference("expr.path", fmt.Sprintf("%s.%s: cannot access property on null", basePath, segment))
		}
		switch v := value.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, engineerr.Reference("expr.path", fmt.Sprintf("%s.%s: property not found", basePath, segment))
			}
			value = next
		default:
			return nil, engineerr.Reference("expr.path", fmt.Sprintf("%s.%s: cannot access property on %T", basePath, segment, value))
		}
		basePath = basePath + "." + segment
	}
	return value, nil
}

func evalConcat(e program.Expr, ctx Context) (any, error) {
	var sb strings.Builder
	for _, operand := range e.Operands {
		v, err := Evaluate(operand, ctx)
		if err != nil {
			return nil, err
		}
		if v != nil {
			sb.WriteString(toDisplayString(v))
		}
	}
	return sb.String(), nil
}

func evalArrayLiteral(e program.Expr, ctx Context) (any, error) {
	out := make([]any, 0, len(e.Elements))
	for _, elem := range e.Elements {
		v, err := Evaluate(elem, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalMapLiteral(e program.Expr, ctx Context) (any, error) {
	out := make(map[string]any, len(e.Entries))
	for _, entry := range e.Entries {
		v, err := Evaluate(entry.Value, ctx)
		if err != nil {
			return nil, err
		}
		out[entry.Key] = v
	}
	return out, nil
}

func evalIndex(e program.Expr, ctx Context) (any, error) {
	if e.Target == nil || e.Index == nil {
		return nil, engineerr.Evaluation("expr.IndexExpr", "index expression missing target or index")
	}
	target, err := Evaluate(*e.Target, ctx)
	if err != nil {
		return nil, err
	}
	index, err := Evaluate(*e.Index, ctx)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case []any:
		i, ok := asInt(index)
		if !ok || i < 0 || i >= len(t) {
			return nil, engineerr.Evaluation("expr.IndexExpr", fmt.Sprintf("index error: %v out of range for array of length %d", index, len(t)))
		}
		return t[i], nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, engineerr.Evaluation("expr.IndexExpr", fmt.Sprintf("index error: %v is not a valid map key", index))
		}
		v, ok := t[key]
		if !ok {
			return nil, engineerr.Evaluation("expr.IndexExpr", fmt.Sprintf("index error: key %q not found", key))
		}
		return v, nil
	default:
		return nil, engineerr.Evaluation("expr.IndexExpr", fmt.Sprintf("index error: cannot index %T", target))
	}
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

func intValue(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return float64(0)
	}
}

func floatValue(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	default:
		return float64(0)
	}
}
