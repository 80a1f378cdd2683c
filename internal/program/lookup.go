package program

import "strings"

// ResolveFacetName resolves a short (unqualified) facet/event-facet/workflow
// name to its fully qualified form by searching the declaration tree in
// declaration order, the same algorithm the compiler's dependency pass
// uses. If short is not found, it is returned unchanged — callers treat an
// unresolved name as already qualified (or as an error once they fail the
// subsequent lookup).
func (p *Program) ResolveFacetName(short string) string {
	if short == "" {
		return short
	}
	if resolved, ok := resolveInDeclarations(p.Declarations, short, ""); ok {
		return resolved
	}
	return short
}

func resolveInDeclarations(decls []Declaration, short, prefix string) (string, bool) {
	for _, decl := range decls {
		switch decl.Type {
		case "FacetDecl", "EventFacetDecl", "WorkflowDecl":
			if decl.Name == short {
				if prefix != "" {
					return prefix + "." + short, true
				}
				return short, true
			}
		case "Namespace":
			newPrefix := decl.Name
			if prefix != "" {
				newPrefix = prefix + "." + decl.Name
			}
			if resolved, ok := resolveInDeclarations(decl.Declarations, short, newPrefix); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// IsSchema reports whether name (possibly dotted) refers to a declared
// Schema, searching the declaration tree the same way ResolveFacetName
// does.
func (p *Program) IsSchema(name string) bool {
	if name == "" {
		return false
	}
	_, ok := findSchemaInDeclarations(p.Declarations, name, "")
	return ok
}

func findSchemaInDeclarations(decls []Declaration, name, prefix string) (string, bool) {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		nsName, rest := name[:idx], name[idx+1:]
		for _, decl := range decls {
			if decl.Type == "Namespace" && decl.Name == nsName {
				newPrefix := nsName
				if prefix != "" {
					newPrefix = prefix + "." + nsName
				}
				return findSchemaInDeclarations(decl.Declarations, rest, newPrefix)
			}
		}
		return "", false
	}

	for _, decl := range decls {
		switch decl.Type {
		case "SchemaDecl":
			if decl.Name == name {
				if prefix != "" {
					return prefix + "." + name, true
				}
				return name, true
			}
		case "Namespace":
			newPrefix := decl.Name
			if prefix != "" {
				newPrefix = prefix + "." + decl.Name
			}
			if resolved, ok := findSchemaInDeclarations(decl.Declarations, name, newPrefix); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

// Facet returns the facet with the given qualified name, searching the
// top-level list and every nested namespace.
func (p *Program) Facet(name string) (*Facet, bool) {
	if f, ok := findFacet(p.Facets, name); ok {
		return f, true
	}
	return findFacetInNamespaces(p.Namespaces, name)
}

func findFacet(facets []Facet, name string) (*Facet, bool) {
	for i := range facets {
		if facets[i].Name == name {
			return &facets[i], true
		}
	}
	return nil, false
}

func findFacetInNamespaces(namespaces []Namespace, name string) (*Facet, bool) {
	for i := range namespaces {
		if f, ok := findFacet(namespaces[i].Facets, name); ok {
			return f, true
		}
		if f, ok := findFacetInNamespaces(namespaces[i].Namespaces, name); ok {
			return f, true
		}
	}
	return nil, false
}

// EventFacet returns the event facet with the given qualified name.
func (p *Program) EventFacet(name string) (*EventFacet, bool) {
	if f, ok := findEventFacet(p.EventFacets, name); ok {
		return f, true
	}
	return findEventFacetInNamespaces(p.Namespaces, name)
}

func findEventFacet(facets []EventFacet, name string) (*EventFacet, bool) {
	for i := range facets {
		if facets[i].Name == name {
			return &facets[i], true
		}
	}
	return nil, false
}

func findEventFacetInNamespaces(namespaces []Namespace, name string) (*EventFacet, bool) {
	for i := range namespaces {
		if f, ok := findEventFacet(namespaces[i].EventFacets, name); ok {
			return f, true
		}
		if f, ok := findEventFacetInNamespaces(namespaces[i].Namespaces, name); ok {
			return f, true
		}
	}
	return nil, false
}

// Workflow returns the workflow with the given name.
func (p *Program) Workflow(name string) (*Workflow, bool) {
	if w, ok := findWorkflow(p.Workflows, name); ok {
		return w, true
	}
	return findWorkflowInNamespaces(p.Namespaces, name)
}

func findWorkflow(workflows []Workflow, name string) (*Workflow, bool) {
	for i := range workflows {
		if workflows[i].Name == name {
			return &workflows[i], true
		}
	}
	return nil, false
}

func findWorkflowInNamespaces(namespaces []Namespace, name string) (*Workflow, bool) {
	for i := range namespaces {
		if w, ok := findWorkflow(namespaces[i].Workflows, name); ok {
			return w, true
		}
		if w, ok := findWorkflowInNamespaces(namespaces[i].Namespaces, name); ok {
			return w, true
		}
	}
	return nil, false
}

// Schema returns the schema with the given qualified name.
func (p *Program) Schema(name string) (*Schema, bool) {
	if s, ok := findSchema(p.Schemas, name); ok {
		return s, true
	}
	return findSchemaInNamespaces(p.Namespaces, name)
}

func findSchema(schemas []Schema, name string) (*Schema, bool) {
	for i := range schemas {
		if schemas[i].Name == name {
			return &schemas[i], true
		}
	}
	return nil, false
}

func findSchemaInNamespaces(namespaces []Namespace, name string) (*Schema, bool) {
	for i := range namespaces {
		if s, ok := findSchema(namespaces[i].Schemas, name); ok {
			return s, true
		}
		if s, ok := findSchemaInNamespaces(namespaces[i].Namespaces, name); ok {
			return s, true
		}
	}
	return nil, false
}
