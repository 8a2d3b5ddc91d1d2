package mes

import (
	"errors"
	"fmt"
)

// Assembly errors. Every failure is returned to the caller as soon as it is
// detected; nothing is retried.
var (
	// ErrMissingParam is wrapped by ParamError when a generator needs a parameter the unit never declared.
	ErrMissingParam = errors.New("mes: missing parameter")

	// ErrUnknownUnit indicates a node references a unit that was never registered.
	ErrUnknownUnit = errors.New("mes: unknown unit")

	// ErrUnknownPort indicates a node references a port the unit does not expose.
	ErrUnknownPort = errors.New("mes: unknown port")

	// ErrDuplicateName indicates two components, families or objectives share a name.
	ErrDuplicateName = errors.New("mes: duplicate name")

	// ErrSealed indicates a component was added after BuildModel ran.
	ErrSealed = errors.New("mes: system already built")

	// ErrInconsistentActivation indicates startup/shutdown tracking without on/off state.
	ErrInconsistentActivation = errors.New("mes: startup/shutdown active without on/off state")

	// ErrDegenerateFit indicates both driver bounds coincide so no line can be fitted.
	ErrDegenerateFit = errors.New("mes: degenerate linear dependency bounds")

	// ErrUnknownKind indicates a unit kind that no package registered.
	ErrUnknownKind = errors.New("mes: unknown unit kind")

	// ErrUnknownObjective indicates an objective name that is not part of the model.
	ErrUnknownObjective = errors.New("mes: unknown objective")

	// ErrUnknownSolver indicates a solver backend that no package registered.
	ErrUnknownSolver = errors.New("mes: unknown solver")
)

// ParamError reports a parameter a unit needed but did not declare.
type ParamError struct {
	Unit string
	Key  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("unit %q: parameter %q: %v", e.Unit, e.Key, ErrMissingParam)
}

func (e *ParamError) Unwrap() error {
	return ErrMissingParam
}
