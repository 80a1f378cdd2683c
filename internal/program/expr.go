package program

import (
	"encoding/json"
	"fmt"
)

// ExprKind tags the variant of an Expr node. Values match the compiled
// AST's "type" discriminator exactly.
type ExprKind string

const (
	ExprString       ExprKind = "String"
	ExprInt          ExprKind = "Int"
	ExprDouble       ExprKind = "Double"
	ExprBoolean      ExprKind = "Boolean"
	ExprNull         ExprKind = "Null"
	ExprInputRef     ExprKind = "InputRef"
	ExprStepRef      ExprKind = "StepRef"
	ExprConcat       ExprKind = "ConcatExpr"
	ExprBinary       ExprKind = "BinaryExpr"
	ExprUnary        ExprKind = "UnaryExpr"
	ExprArrayLiteral ExprKind = "ArrayLiteral"
	ExprMapLiteral   ExprKind = "MapLiteral"
	ExprIndex        ExprKind = "IndexExpr"
)

// Expr is a single expression AST node. It is a flattened union: only the
// fields relevant to Kind are populated. This mirrors the compiled JSON,
// which represents every expression as a dict keyed by "type".
type Expr struct {
	Kind ExprKind

	// String/Int/Double/Boolean literal value.
	Value any

	// InputRef/StepRef path segments (e.g. ["x", "field"]).
	Path []string

	// ConcatExpr operands.
	Operands []Expr

	// BinaryExpr.
	Left     *Expr
	Right    *Expr
	Operator string

	// UnaryExpr.
	Operand *Expr

	// ArrayLiteral elements.
	Elements []Expr

	// MapLiteral entries.
	Entries []MapEntry

	// IndexExpr.
	Target *Expr
	Index  *Expr
}

// MapEntry is one key/value pair of a MapLiteral.
type MapEntry struct {
	Key   string
	Value Expr
}

// IsZero reports whether e is the unset Expr (absent optional field, e.g.
// a Param with no default).
func (e *Expr) IsZero() bool {
	return e == nil || e.Kind == ""
}

type rawExpr struct {
	Type     string            `json:"type"`
	Value    json.RawMessage   `json:"value"`
	Path     []string          `json:"path"`
	Operands []json.RawMessage `json:"operands"`
	Left     json.RawMessage   `json:"left"`
	Right    json.RawMessage   `json:"right"`
	Operator string            `json:"operator"`
	Operand  json.RawMessage   `json:"operand"`
	Elements []json.RawMessage `json:"elements"`
	Entries  []rawMapEntry     `json:"entries"`
	Target   json.RawMessage   `json:"target"`
	Index    json.RawMessage   `json:"index"`
}

type rawMapEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON accepts both the typed-dict form ({"type": "String", ...})
// and bare JSON scalars, which the compiler also emits in a few literal
// positions.
func (e *Expr) UnmarshalJSON(data []byte) error {
	trimmed := trimSpaceBytes(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*e = Expr{}
		return nil
	}
	if trimmed[0] != '{' {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("program: decoding scalar expression: %w", err)
		}
		*e = Expr{Kind: kindOfScalar(v), Value: v}
		return nil
	}

	var raw rawExpr
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("program: decoding expression: %w", err)
	}

	out := Expr{Kind: ExprKind(raw.Type), Path: raw.Path, Operator: raw.Operator}

	switch out.Kind {
	case ExprString, ExprInt, ExprDouble, ExprBoolean:
		if len(raw.Value) > 0 {
			var v any
			if err := json.Unmarshal(raw.Value, &v); err != nil {
				return fmt.Errorf("program: decoding literal value: %w", err)
			}
			out.Value = v
		}
	case ExprConcat:
		operands, err := decodeExprList(raw.Operands)
		if err != nil {
			return err
		}
		out.Operands = operands
	case ExprBinary:
		left, err := decodeExprPtr(raw.Left)
		if err != nil {
			return err
		}
		right, err := decodeExprPtr(raw.Right)
		if err != nil {
			return err
		}
		out.Left, out.Right = left, right
	case ExprUnary:
		operand, err := decodeExprPtr(raw.Operand)
		if err != nil {
			return err
		}
		out.Operand = operand
	case ExprArrayLiteral:
		elements, err := decodeExprList(raw.Elements)
		if err != nil {
			return err
		}
		out.Elements = elements
	case ExprMapLiteral:
		entries := make([]MapEntry, 0, len(raw.Entries))
		for _, re := range raw.Entries {
			var v Expr
			if len(re.Value) > 0 {
				if err := json.Unmarshal(re.Value, &v); err != nil {
					return fmt.Errorf("program: decoding map entry %q: %w", re.Key, err)
				}
			}
			entries = append(entries, MapEntry{Key: re.Key, Value: v})
		}
		out.Entries = entries
	case ExprIndex:
		target, err := decodeExprPtr(raw.Target)
		if err != nil {
			return err
		}
		index, err := decodeExprPtr(raw.Index)
		if err != nil {
			return err
		}
		out.Target, out.Index = target, index
	case ExprNull, ExprInputRef, ExprStepRef:
		// no extra fields beyond Path (InputRef/StepRef) or nothing (Null)
	default:
		// Unknown type: fall back to the raw "value" field, if present,
		// same as the reference evaluator's leniency.
		if len(raw.Value) > 0 {
			var v any
			if err := json.Unmarshal(raw.Value, &v); err != nil {
				return fmt.Errorf("program: decoding unknown expression %q: %w", raw.Type, err)
			}
			out.Value = v
		}
	}

	*e = out
	return nil
}

func decodeExprList(raws []json.RawMessage) ([]Expr, error) {
	out := make([]Expr, 0, len(raws))
	for _, r := range raws {
		var v Expr
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeExprPtr(raw json.RawMessage) (*Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v Expr
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func kindOfScalar(v any) ExprKind {
	switch v.(type) {
	case string:
		return ExprString
	case bool:
		return ExprBoolean
	case float64:
		return ExprDouble
	case nil:
		return ExprNull
	default:
		return ""
	}
}

func trimSpaceBytes(b []byte) []byte {
	i, j := 0, len(b)
	for i < j && isSpaceByte(b[i]) {
		i++
	}
	for j > i && isSpaceByte(b[j-1]) {
		j--
	}
	return b[i:j]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
