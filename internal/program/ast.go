// Package program decodes the compiled program AST — the JSON artifact a
// workflow compiler emits and the engine consumes. It mirrors the shape of
// the reference compiler's output; fields the engine does not need are
// ignored by encoding/json rather than modeled.
package program

import "encoding/json"

// Program is the root of a compiled program.
type Program struct {
	Namespaces   []Namespace   `json:"namespaces"`
	Facets       []Facet       `json:"facets"`
	EventFacets  []EventFacet  `json:"eventFacets"`
	Workflows    []Workflow    `json:"workflows"`
	Schemas      []Schema      `json:"schemas"`
	Declarations []Declaration `json:"declarations"`
}

// Namespace groups nested declarations under a qualifying name.
type Namespace struct {
	Name         string        `json:"name"`
	Uses         []string      `json:"uses"`
	Namespaces   []Namespace   `json:"namespaces"`
	Facets       []Facet       `json:"facets"`
	EventFacets  []EventFacet  `json:"eventFacets"`
	Workflows    []Workflow    `json:"workflows"`
	Schemas      []Schema      `json:"schemas"`
	Declarations []Declaration `json:"declarations"`
}

// Declaration is a minimal, flattened view of any top-level or nested
// declaration (Namespace, FacetDecl, EventFacetDecl, WorkflowDecl,
// SchemaDecl). Only the fields name resolution needs are kept; the full
// body of a facet/workflow/schema is reached through Program.Facets etc.,
// keyed by qualified name, not through this tree.
type Declaration struct {
	Type         string        `json:"type"`
	Name         string        `json:"name"`
	Declarations []Declaration `json:"declarations,omitempty"`
}

// Param is a named, typed parameter of a facet, event facet, or workflow.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default *Expr  `json:"default,omitempty"`
}

// Field is a named, typed member of a Schema.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema declares a data shape that a step can instantiate directly,
// without going through a facet.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Facet is a named, callable unit with typed params and returns. Its Body
// holds one or more AndThenBlocks, or a ScriptBlock/PromptBlock; Mixins
// lists the facets mixed into it.
type Facet struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params"`
	Returns []Param `json:"returns"`
	Mixins  []Mixin `json:"mixins,omitempty"`
	Body    Body    `json:"body"`
}

// Mixin references another facet mixed into this one; mixins do not alter
// the dependency graph of the block that invokes the facet. The step state
// machine's MixinBlocks/MixinCapture phases only advance: a mixin's blocks
// are not run and nothing is captured from them.
type Mixin struct {
	Name string `json:"name"`
}

// EventFacet is a Facet that can additionally transmit/receive external
// events mid-execution (EventTransmit phase).
type EventFacet struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params"`
	Returns []Param `json:"returns"`
	Mixins  []Mixin `json:"mixins,omitempty"`
	Body    Body    `json:"body"`
	Event   string  `json:"event,omitempty"`
}

// Workflow is a top-level, submittable unit with the same shape as a
// Facet plus a declared input/output contract.
type Workflow struct {
	Name    string  `json:"name"`
	Params  []Param `json:"params"`
	Returns []Param `json:"returns"`
	Body    Body    `json:"body"`
}

// Body holds a facet/workflow's block(s), or — for an event facet or a
// script-bodied facet — a ScriptBlock/PromptBlock instead. The compiler
// emits either a single AndThenBlock object, an array of them, or one of
// the two leaf block kinds discriminated by a "type" field.
type Body struct {
	Blocks []AndThenBlock
	Script *ScriptBlock
	Prompt *PromptBlock
}

// ScriptBlock is a sandboxed code body (§6.4): the facet's params are
// handed to the sandbox collaborator as inputs, its result mapping becomes
// the step's returns.
type ScriptBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// PromptBlock is an LLM prompt body on an event facet; the core treats it
// opaquely and hands it to the handler registry the same way it would any
// other event facet, via EventTransmit.
type PromptBlock struct {
	Template string `json:"template"`
}

type bodyDiscriminator struct {
	Type string `json:"type"`
}

// UnmarshalJSON accepts a single AndThenBlock object, an array of them, or
// a ScriptBlock/PromptBlock discriminated by "type".
func (b *Body) UnmarshalJSON(data []byte) error {
	trimmed := trimSpaceBytes(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*b = Body{}
		return nil
	}
	if trimmed[0] == '[' {
		var blocks []AndThenBlock
		if err := json.Unmarshal(data, &blocks); err != nil {
			return err
		}
		b.Blocks = blocks
		return nil
	}

	var disc bodyDiscriminator
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}
	switch disc.Type {
	case "ScriptBlock":
		var s ScriptBlock
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		b.Script = &s
		return nil
	case "PromptBlock":
		var p PromptBlock
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		b.Prompt = &p
		return nil
	default:
		var block AndThenBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return err
		}
		b.Blocks = []AndThenBlock{block}
		return nil
	}
}

// ForeachClause turns an AndThenBlock into a template instantiated once
// per element of Iterable, each instance bound to Variable.
type ForeachClause struct {
	Variable string `json:"variable"`
	Iterable Expr   `json:"iterable"`
}

// AndThenBlock is a dependency-ordered group of statements (steps plus an
// optional yield), or a foreach template over such a group.
type AndThenBlock struct {
	Foreach *ForeachClause `json:"foreach,omitempty"`
	Steps   []StepStmt     `json:"steps"`
	Yield   *YieldStmt     `json:"yield,omitempty"`
	Yields  []YieldStmt    `json:"yields,omitempty"`
}

// CallExpr invokes a facet or schema by name with named arguments.
type CallExpr struct {
	Target string `json:"target"`
	Args   []Arg  `json:"args"`
}

// Arg is one named argument of a CallExpr.
type Arg struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
}

// StepStmt binds the result of a CallExpr to Name, identified uniquely
// within its block by ID. Body is an inline statement-level andThen,
// present only when the statement declares one instead of relying on its
// target facet's own body.
type StepStmt struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Call CallExpr `json:"call"`
	Body *Body    `json:"body,omitempty"`
}

// YieldStmt is a block's terminal statement: its call's returns become the
// block's output attributes.
type YieldStmt struct {
	ID   string   `json:"id"`
	Call CallExpr `json:"call"`
}
