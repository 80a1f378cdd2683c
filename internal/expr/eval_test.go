package expr

import (
	"encoding/json"
	"testing"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

func parseExpr(t *testing.T, raw string) program.Expr {
	t.Helper()
	var e program.Expr
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("parsing expr: %v", err)
	}
	return e
}

func TestEvaluateArithmetic(t *testing.T) {
	e := parseExpr(t, `{"type":"BinaryExpr","operator":"+","left":{"type":"Int","value":1},"right":{"type":"Int","value":2}}`)
	v, err := Evaluate(e, Context{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != float64(3) {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	e := parseExpr(t, `{"type":"BinaryExpr","operator":"/","left":{"type":"Int","value":1},"right":{"type":"Int","value":0}}`)
	_, err := Evaluate(e, Context{})
	if !engineerr.Is(err, engineerr.KindEvaluation) {
		t.Fatalf("expected evaluation error, got %v", err)
	}
}

func TestEvaluateInputRefMissing(t *testing.T) {
	e := parseExpr(t, `{"type":"InputRef","path":["y"]}`)
	_, err := Evaluate(e, Context{Inputs: map[string]any{}})
	if !engineerr.Is(err, engineerr.KindReference) {
		t.Fatalf("expected reference error, got %v", err)
	}
}

func TestEvaluateInputRefForeachVar(t *testing.T) {
	e := parseExpr(t, `{"type":"InputRef","path":["item"]}`)
	v, err := Evaluate(e, Context{HasForeach: true, ForeachVar: "item", ForeachValue: "x"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != "x" {
		t.Fatalf("expected x, got %v", v)
	}
}

func TestEvaluateStepRefResolvesPath(t *testing.T) {
	e := parseExpr(t, `{"type":"StepRef","path":["s1","out","nested"]}`)
	v, err := Evaluate(e, Context{
		GetStepOutput: func(step, attr string) (any, error) {
			return map[string]any{"nested": 42.0}, nil
		},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != float64(42) {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestEvaluateUnaryNegate(t *testing.T) {
	e := parseExpr(t, `{"type":"UnaryExpr","operator":"-","operand":{"type":"Int","value":5}}`)
	v, err := Evaluate(e, Context{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != float64(-5) {
		t.Fatalf("expected -5, got %v", v)
	}
}

func TestEvaluateConcat(t *testing.T) {
	e := parseExpr(t, `{"type":"ConcatExpr","operands":[{"type":"String","value":"a"},{"type":"Int","value":1}]}`)
	v, err := Evaluate(e, Context{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != "a1" {
		t.Fatalf("expected a1, got %q", v)
	}
}

func TestEvaluateArrayAndIndex(t *testing.T) {
	e := parseExpr(t, `{"type":"IndexExpr","target":{"type":"ArrayLiteral","elements":[{"type":"Int","value":10},{"type":"Int","value":20}]},"index":{"type":"Int","value":1}}`)
	v, err := Evaluate(e, Context{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v != float64(20) {
		t.Fatalf("expected 20, got %v", v)
	}
}

func TestEvaluateIndexOutOfRange(t *testing.T) {
	e := parseExpr(t, `{"type":"IndexExpr","target":{"type":"ArrayLiteral","elements":[{"type":"Int","value":10}]},"index":{"type":"Int","value":5}}`)
	_, err := Evaluate(e, Context{})
	if !engineerr.Is(err, engineerr.KindEvaluation) {
		t.Fatalf("expected evaluation error, got %v", err)
	}
}

func TestEvaluateMapLiteral(t *testing.T) {
	e := parseExpr(t, `{"type":"MapLiteral","entries":[{"key":"a","value":{"type":"Int","value":1}}]}`)
	v, err := Evaluate(e, Context{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["a"] != float64(1) {
		t.Fatalf("unexpected map result: %#v", v)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	e := parseExpr(t, `{"type":"BinaryExpr","operator":"*","left":{"type":"Int","value":3},"right":{"type":"Int","value":4}}`)
	ctx := Context{}
	first, err := Evaluate(e, ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	second, err := Evaluate(e, ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if first != second {
		t.Fatalf("expected repeated evaluation to be identical, got %v and %v", first, second)
	}
}
