package stepsm

import "github.com/rlemke/agentflow-sub002/internal/domain/afl"

// registry maps each phase to the handler that processes it. Phases
// absent from this map (there are none currently) auto-advance.
var registry = map[afl.StepState]Handler{
	afl.StateCreated:                  handleStatementBegin,
	afl.StateFacetInitializationBegin: handleFacetInitializationBegin,
	afl.StateFacetInitializationEnd:   handleFacetInitializationEnd,

	afl.StateFacetScriptsBegin:     handleFacetScriptsBegin,
	afl.StateFacetScriptsEnd:       handleFacetScriptsEnd,
	afl.StateStatementScriptsBegin: handleStatementScriptsBegin,
	afl.StateStatementScriptsEnd:   handleStatementScriptsEnd,

	afl.StateMixinBlocksBegin:    handleMixinBlocksBegin,
	afl.StateMixinBlocksContinue: handleMixinBlocksContinue,
	afl.StateMixinBlocksEnd:      handleMixinBlocksEnd,

	afl.StateMixinCaptureBegin: handleMixinCaptureBegin,
	afl.StateMixinCaptureEnd:   handleMixinCaptureEnd,

	afl.StateEventTransmit: handleEventTransmit,

	afl.StateStatementBlocksBegin:    handleStatementBlocksBegin,
	afl.StateStatementBlocksContinue: handleStatementBlocksContinue,
	afl.StateStatementBlocksEnd:      handleStatementBlocksEnd,

	afl.StateStatementCaptureBegin: handleStatementCaptureBegin,
	afl.StateStatementCaptureEnd:   handleStatementCaptureEnd,

	afl.StateStatementEnd:      handleStatementEnd,
	afl.StateStatementComplete: handleStatementComplete,

	afl.StateBlockExecutionBegin:    handleBlockExecutionBegin,
	afl.StateBlockExecutionContinue: handleBlockExecutionContinue,
	afl.StateBlockExecutionEnd:      handleBlockExecutionEnd,
}
