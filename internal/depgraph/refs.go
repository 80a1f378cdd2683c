package depgraph

import "github.com/rlemke/agentflow-sub002/internal/program"

func (g *Graph) extractDependencies(args []program.Arg) map[string]struct{} {
	deps := map[string]struct{}{}
	for _, arg := range args {
		g.extractRefsFromValue(arg.Value, deps)
	}
	return deps
}

// extractRefsFromValue recurses through every compound expression kind
// collecting StepRef targets. InputRef contributes nothing: it names a
// workflow input or enclosing-facet parameter, not a sibling statement.
func (g *Graph) extractRefsFromValue(e program.Expr, deps map[string]struct{}) {
	switch e.Kind {
	case program.ExprStepRef:
		if len(e.Path) == 0 {
			return
		}
		if id, ok := g.nameToID[e.Path[0]]; ok {
			deps[id] = struct{}{}
		}
	case program.ExprConcat:
		for _, operand := range e.Operands {
			g.extractRefsFromValue(operand, deps)
		}
	case program.ExprBinary:
		if e.Left != nil {
			g.extractRefsFromValue(*e.Left, deps)
		}
		if e.Right != nil {
			g.extractRefsFromValue(*e.Right, deps)
		}
	case program.ExprUnary:
		if e.Operand != nil {
			g.extractRefsFromValue(*e.Operand, deps)
		}
	case program.ExprArrayLiteral:
		for _, elem := range e.Elements {
			g.extractRefsFromValue(elem, deps)
		}
	case program.ExprMapLiteral:
		for _, entry := range e.Entries {
			g.extractRefsFromValue(entry.Value, deps)
		}
	case program.ExprIndex:
		if e.Target != nil {
			g.extractRefsFromValue(*e.Target, deps)
		}
		if e.Index != nil {
			g.extractRefsFromValue(*e.Index, deps)
		}
	}
}
