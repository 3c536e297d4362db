package dashboard

import "fmt"

// Kind classifies how a fetch settled.
type Kind int

const (
	// Pending: the fetch has not settled.
	Pending Kind = iota
	// Loaded: a 2xx response replaced the snapshot.
	Loaded
	// Rejected: the backend answered with a non-2xx status.
	Rejected
	// Failed: transport, decoding or cancellation error.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the settled result of a view's fetch. Renderers decide whether
// to mention a non-Loaded outcome; the snapshot is unaffected either way.
type Outcome struct {
	Kind   Kind
	Status int   // HTTP status, Rejected only
	Err    error // set for Rejected and Failed
}

// OK reports whether the snapshot came from the backend.
func (o Outcome) OK() bool { return o.Kind == Loaded }

// Settled reports whether the fetch has finished.
func (o Outcome) Settled() bool { return o.Kind != Pending }

// Reason is a short human description, empty for Pending and Loaded.
func (o Outcome) Reason() string {
	switch o.Kind {
	case Rejected:
		return fmt.Sprintf("backend answered %d", o.Status)
	case Failed:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "request failed"
	default:
		return ""
	}
}

func (o Outcome) String() string {
	if r := o.Reason(); r != "" {
		return o.Kind.String() + ": " + r
	}
	return o.Kind.String()
}
