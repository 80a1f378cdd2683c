package stepsm

import "github.com/rlemke/agentflow-sub002/internal/domain/afl"

// fullTransitions is the phase sequence a VariableAssignment or
// SchemaInstantiation step advances through: every phase in the full
// state set, in order.
var fullTransitions = map[afl.StepState]afl.StepState{
	afl.StateCreated:                   afl.StateFacetInitializationBegin,
	afl.StateFacetInitializationBegin:  afl.StateFacetInitializationEnd,
	afl.StateFacetInitializationEnd:    afl.StateFacetScriptsBegin,
	afl.StateFacetScriptsBegin:         afl.StateFacetScriptsEnd,
	afl.StateFacetScriptsEnd:           afl.StateStatementScriptsBegin,
	afl.StateStatementScriptsBegin:     afl.StateStatementScriptsEnd,
	afl.StateStatementScriptsEnd:       afl.StateMixinBlocksBegin,
	afl.StateMixinBlocksBegin:          afl.StateMixinBlocksContinue,
	afl.StateMixinBlocksContinue:       afl.StateMixinBlocksEnd,
	afl.StateMixinBlocksEnd:            afl.StateMixinCaptureBegin,
	afl.StateMixinCaptureBegin:         afl.StateMixinCaptureEnd,
	afl.StateMixinCaptureEnd:           afl.StateEventTransmit,
	afl.StateEventTransmit:             afl.StateStatementBlocksBegin,
	afl.StateStatementBlocksBegin:      afl.StateStatementBlocksContinue,
	afl.StateStatementBlocksContinue:   afl.StateStatementBlocksEnd,
	afl.StateStatementBlocksEnd:        afl.StateStatementCaptureBegin,
	afl.StateStatementCaptureBegin:     afl.StateStatementCaptureEnd,
	afl.StateStatementCaptureEnd:       afl.StateStatementEnd,
	afl.StateStatementEnd:              afl.StateStatementComplete,
}

// yieldTransitions is the minimal phase sequence a YieldAssignment step
// advances through: initialization and facet scripts, but none of the
// block/mixin/event machinery (a yield has no body of its own).
var yieldTransitions = map[afl.StepState]afl.StepState{
	afl.StateCreated:                  afl.StateFacetInitializationBegin,
	afl.StateFacetInitializationBegin: afl.StateFacetInitializationEnd,
	afl.StateFacetInitializationEnd:   afl.StateFacetScriptsBegin,
	afl.StateFacetScriptsBegin:        afl.StateFacetScriptsEnd,
	afl.StateFacetScriptsEnd:          afl.StateStatementEnd,
	afl.StateStatementEnd:             afl.StateStatementComplete,
}

// blockTransitions is the reduced phase sequence an AndThenBlock step
// advances through.
var blockTransitions = map[afl.StepState]afl.StepState{
	afl.StateCreated:                afl.StateBlockExecutionBegin,
	afl.StateBlockExecutionBegin:    afl.StateBlockExecutionContinue,
	afl.StateBlockExecutionContinue: afl.StateBlockExecutionEnd,
	afl.StateBlockExecutionEnd:      afl.StateStatementComplete,
}

func transitionTableFor(objectType afl.ObjectType) map[afl.StepState]afl.StepState {
	switch {
	case objectType.IsBlock():
		return blockTransitions
	case objectType == afl.ObjectYieldAssignment:
		return yieldTransitions
	default:
		return fullTransitions
	}
}
