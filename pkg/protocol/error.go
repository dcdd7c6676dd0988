package protocol

import "errors"

// ErrorKind tags the failure domain of a channel error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindSerialization covers malformed or unrepresentable payloads.
	KindSerialization
	// KindFraming covers truncated or oversized frames.
	KindFraming
	// KindNetwork covers underlying session/stream failures.
	KindNetwork
	// KindClosed covers operations attempted after shutdown.
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindSerialization:
		return "serialization"
	case KindFraming:
		return "framing"
	case KindNetwork:
		return "network"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is the single tagged error surfaced by codecs, bridges and channels.
// One variant type rather than an error hierarchy, so an RPC consumer needs
// only a single type assertion to classify any failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Serialization tags err as a serialization failure.
func Serialization(err error) error { return &Error{Kind: KindSerialization, Err: err} }

// Framing tags err as a framing failure.
func Framing(err error) error { return &Error{Kind: KindFraming, Err: err} }

// Network tags err as an underlying session/stream failure.
func Network(err error) error { return &Error{Kind: KindNetwork, Err: err} }

// ErrClosed is returned for any operation on a closed channel or bridge.
var ErrClosed = &Error{Kind: KindClosed, Err: errors.New("transport is closed")}

// Closed returns the canonical closed-transport error.
func Closed() error { return ErrClosed }

// KindOf reports the failure domain of err, or KindUnknown for untagged
// errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
