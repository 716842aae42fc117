package ceremony

import "fmt"

// InvariantKind names which field of an MPCParameters pair failed to match
// across a verify(before, after) call.
type InvariantKind int

const (
	InvariantDeltaG1 InvariantKind = iota
	InvariantCsHash
	InvariantContributions
	InvariantAlphaG1
	InvariantBetaG1
	InvariantBetaG2
	InvariantGammaG2
	InvariantGammaAbcG1
	InvariantAlphaG1Query
	InvariantBetaG1Query
	InvariantBetaG2Query
	InvariantTranscript
)

func (k InvariantKind) String() string {
	switch k {
	case InvariantDeltaG1:
		return "DeltaG1"
	case InvariantCsHash:
		return "CsHash"
	case InvariantContributions:
		return "Contributions"
	case InvariantAlphaG1:
		return "AlphaG1"
	case InvariantBetaG1:
		return "BetaG1"
	case InvariantBetaG2:
		return "BetaG2"
	case InvariantGammaG2:
		return "GammaG2"
	case InvariantGammaAbcG1:
		return "GammaAbcG1"
	case InvariantAlphaG1Query:
		return "AlphaG1Query"
	case InvariantBetaG1Query:
		return "BetaG1Query"
	case InvariantBetaG2Query:
		return "BetaG2Query"
	case InvariantTranscript:
		return "Transcript"
	default:
		return fmt.Sprintf("InvariantKind(%d)", int(k))
	}
}

// ErrUnconstrainedVariable is returned by New/NewChunked when l_query would
// contain a point at infinity: some private variable never appears in any
// constraint.
type ErrUnconstrainedVariable struct{}

func (ErrUnconstrainedVariable) Error() string {
	return "ceremony: unconstrained private variable (l_query would not be dense)"
}

// ErrNoContributions is returned by Verify when the "after" parameters have
// an empty contribution log.
type ErrNoContributions struct{}

func (ErrNoContributions) Error() string {
	return "ceremony: no contributions found"
}

// ErrInvalidLength is returned when two vectors that must stay the same
// length across a contribution diverge.
type ErrInvalidLength struct {
	Name          string
	Before, After int
}

func (e ErrInvalidLength) Error() string {
	return fmt.Sprintf("ceremony: %s length changed: %d -> %d", e.Name, e.Before, e.After)
}

// ErrBrokenInvariant is returned when a field that must stay identical
// across a contribution changed.
type ErrBrokenInvariant struct {
	Kind InvariantKind
}

func (e *ErrBrokenInvariant) Error() string {
	return fmt.Sprintf("ceremony: broken invariant: %s", e.Kind)
}

// ErrPairingCheckFailed is returned when a pairing-based ratio or
// signature-of-knowledge check fails.
type ErrPairingCheckFailed struct {
	Message string
}

func (e *ErrPairingCheckFailed) Error() string {
	return fmt.Sprintf("ceremony: pairing check failed: %s", e.Message)
}

// ErrSubgroupCheckFailed is returned when a deserialized point is not a
// member of the expected prime-order subgroup.
type ErrSubgroupCheckFailed struct {
	Cause error
}

func (e *ErrSubgroupCheckFailed) Error() string {
	return fmt.Sprintf("ceremony: subgroup check failed: %v", e.Cause)
}

func (e *ErrSubgroupCheckFailed) Unwrap() error { return e.Cause }

// ErrDeserialization wraps a failure to decode the wire format.
type ErrDeserialization struct {
	Cause error
}

func (e *ErrDeserialization) Error() string {
	return fmt.Sprintf("ceremony: deserialization failed: %v", e.Cause)
}

func (e *ErrDeserialization) Unwrap() error { return e.Cause }
