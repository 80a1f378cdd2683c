package afl

// StepState is one phase of a step's lifecycle. The state set that
// applies to a given step is determined by its ObjectType; internal/stepsm
// owns the transition tables.
type StepState string

const (
	StateCreated StepState = "Created"

	StateFacetInitializationBegin StepState = "FacetInitializationBegin"
	StateFacetInitializationEnd   StepState = "FacetInitializationEnd"

	StateFacetScriptsBegin StepState = "FacetScriptsBegin"
	StateFacetScriptsEnd   StepState = "FacetScriptsEnd"

	StateStatementScriptsBegin StepState = "StatementScriptsBegin"
	StateStatementScriptsEnd   StepState = "StatementScriptsEnd"

	StateMixinBlocksBegin    StepState = "MixinBlocksBegin"
	StateMixinBlocksContinue StepState = "MixinBlocksContinue"
	StateMixinBlocksEnd      StepState = "MixinBlocksEnd"

	StateMixinCaptureBegin StepState = "MixinCaptureBegin"
	StateMixinCaptureEnd   StepState = "MixinCaptureEnd"

	StateEventTransmit StepState = "EventTransmit"

	StateStatementBlocksBegin    StepState = "StatementBlocksBegin"
	StateStatementBlocksContinue StepState = "StatementBlocksContinue"
	StateStatementBlocksEnd      StepState = "StatementBlocksEnd"

	StateStatementCaptureBegin StepState = "StatementCaptureBegin"
	StateStatementCaptureEnd   StepState = "StatementCaptureEnd"

	StateStatementEnd      StepState = "StatementEnd"
	StateStatementComplete StepState = "StatementComplete"

	// Block object type's reduced state set.
	StateBlockExecutionBegin    StepState = "BlockExecutionBegin"
	StateBlockExecutionContinue StepState = "BlockExecutionContinue"
	StateBlockExecutionEnd      StepState = "BlockExecutionEnd"
)

// IsTerminal reports whether s ends a step's lifecycle. StatementComplete
// is the only non-error terminal; error termination is tracked on Step.Error
// rather than as a distinct state value.
func (s StepState) IsTerminal() bool {
	return s == StateStatementComplete
}
