package problem

import (
	"fmt"
	"net/http"
)

// Tag is the coarse transport outcome of a request.
type Tag int

const (
	TagNone Tag = iota
	TagConnection
	TagNetwork
	TagTimeout
	TagServer
	TagClient
	TagUnknown
	TagCancelled
)

var tagNames = [...]string{"none", "connection", "network", "timeout", "server", "client", "unknown", "cancelled"}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("tag(%d)", int(t))
	}
	return tagNames[t]
}

// Outcome is everything the classifier needs to know about a finished request.
type Outcome struct {
	Tag     Tag
	Status  int
	Message string // the response body's "message" field, if any
}

// Problem is a classified failure. It satisfies error so collaborators can
// print or wrap it, but the API client returns it as a value.
type Problem struct {
	Kind      Kind
	Message   string
	Temporary bool
	Status    int
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Kind, p.Message)
}

// New builds a problem of the given kind, falling back to the kind's default
// message when msg is empty.
func New(kind Kind, msg string) Problem {
	if msg == "" {
		msg = kind.defaultMessage()
	}
	return Problem{Kind: kind, Message: msg, Temporary: kind.Temporary()}
}

// BadData reports a response that could not be turned into the expected shape.
func BadData(msg string) Problem { return New(KindBadData, msg) }

// FromStatus returns the transport tag for an HTTP status code.
func FromStatus(status int) Tag {
	switch {
	case status >= 200 && status < 300:
		return TagNone
	case status >= 400 && status < 500:
		return TagClient
	case status >= 500:
		return TagServer
	default:
		return TagUnknown
	}
}

// Classify maps an outcome to a problem. ok is false when there is no problem
// to report: the request succeeded or was cancelled by the caller.
func Classify(o Outcome) (p Problem, ok bool) {
	var kind Kind
	switch o.Tag {
	case TagNone, TagCancelled:
		return Problem{}, false
	case TagConnection, TagNetwork:
		kind = KindCannotConnect
	case TagTimeout:
		kind = KindTimeout
	case TagServer:
		kind = KindServer
	case TagClient:
		switch o.Status {
		case http.StatusUnauthorized:
			kind = KindUnauthorized
		case http.StatusForbidden:
			kind = KindForbidden
		case http.StatusNotFound:
			kind = KindNotFound
		default:
			kind = KindRejected
		}
	default:
		kind = KindUnknown
	}
	p = New(kind, o.Message)
	p.Status = o.Status
	return p, true
}
