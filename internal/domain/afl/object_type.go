package afl

// ObjectType tags what kind of statement a Step materializes.
type ObjectType string

const (
	ObjectVariableAssignment ObjectType = "VariableAssignment"
	ObjectYieldAssignment    ObjectType = "YieldAssignment"
	ObjectSchemaInstantiation ObjectType = "SchemaInstantiation"
	ObjectAndThenBlock        ObjectType = "AndThenBlock"
)

// IsBlock reports whether a step of this object type is driven by the
// block changer rather than the full or yield changer.
func (o ObjectType) IsBlock() bool {
	return o == ObjectAndThenBlock
}
