package expr

import (
	"fmt"
	"strconv"

	"github.com/rlemke/agentflow-sub002/internal/engineerr"
	"github.com/rlemke/agentflow-sub002/internal/program"
)

func evalBinary(e program.Expr, ctx Context) (any, error) {
	if e.Left == nil || e.Right == nil {
		return nil, engineerr.Evaluation("expr.BinaryExpr", "binary expression missing operand")
	}
	left, err := Evaluate(*e.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(*e.Right, ctx)
	if err != nil {
		return nil, err
	}

	if e.Operator == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
	}

	lf, lok := left.(float64)
	rf, rok := right.(float64)
	if !lok || !rok {
		return nil, engineerr.Evaluation("expr.BinaryExpr", fmt.Sprintf("type error in %s operation: %s and %s", e.Operator, goType(left), goType(right)))
	}

	switch e.Operator {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, engineerr.Evaluation("expr.BinaryExpr", "division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, engineerr.Evaluation("expr.BinaryExpr", "modulo by zero")
		}
		return float64(int64(lf) % int64(rf)), nil
	default:
		return nil, engineerr.Evaluation("expr.BinaryExpr", fmt.Sprintf("unknown operator: %s", e.Operator))
	}
}

func evalUnary(e program.Expr, ctx Context) (any, error) {
	if e.Operand == nil {
		return nil, engineerr.Evaluation("expr.UnaryExpr", "unary expression missing operand")
	}
	operand, err := Evaluate(*e.Operand, ctx)
	if err != nil {
		return nil, err
	}
	if e.Operator != "-" {
		return nil, engineerr.Evaluation("expr.UnaryExpr", fmt.Sprintf("unknown unary operator: %s", e.Operator))
	}
	f, ok := operand.(float64)
	if !ok {
		return nil, engineerr.Evaluation("expr.UnaryExpr", fmt.Sprintf("type error in unary - operation: %s", goType(operand)))
	}
	return -f, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func goType(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func toDisplayString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprintf("%v", n)
	}
}
