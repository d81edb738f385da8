package fogsim

// errors.go declares the error values reported during model construction
// and event delivery.  Configuration errors are fatal to setup; the caller
// fixes the model description and rebuilds.  A SealedModel error is fatal
// only to the offending call.

import (
	"errors"
)

var (
	// construction-time errors
	ErrInvalidParameter   = errors.New("invalid device parameter")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrUnknownDevice      = errors.New("unknown device")
	ErrCycle              = errors.New("parent assignment creates cycle")
	ErrMultipleRoot       = errors.New("topology does not have exactly one root")
	ErrUnknownEndpoint    = errors.New("unknown edge endpoint")
	ErrUnknownModule      = errors.New("unknown module")
	ErrUnknownTupleType   = errors.New("unknown tuple type")
	ErrInvalidSelectivity = errors.New("selectivity outside [0,1]")
	ErrInvalidLoop        = errors.New("loop nodes are not connected in the application graph")
	ErrUnplacedModule     = errors.New("module has no device placement")

	// delivery-time errors
	ErrSealedModel = errors.New("model is sealed against structural change")
)

// ReportErrs transforms a list of errors into a single error reporting all
// the non-nil constituents, and returns it.  Sentinel values stay visible
// to errors.Is through the aggregate.  A list with no errors yields nil.
func ReportErrs(errs []error) error {
	return errors.Join(errs...)
}
