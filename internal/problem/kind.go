package problem

// Kind is one value of the closed failure taxonomy, plus KindOK.
type Kind string

const (
	KindOK            Kind = "ok"
	KindTimeout       Kind = "timeout"
	KindCannotConnect Kind = "cannot-connect"
	KindServer        Kind = "server"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not-found"
	KindRejected      Kind = "rejected"
	KindUnknown       Kind = "unknown"
	KindBadData       Kind = "bad-data"
	KindCancelled     Kind = "cancelled"
)

// String returns the wire name of the kind.
func (k Kind) String() string { return string(k) }

// Temporary reports whether retrying without user action may succeed.
func (k Kind) Temporary() bool {
	switch k {
	case KindTimeout, KindCannotConnect, KindUnknown:
		return true
	}
	return false
}

// RequiresReauth reports whether the failure means the session can no longer
// be trusted and the user has to log in again.
func (k Kind) RequiresReauth() bool {
	return k == KindUnauthorized || k == KindForbidden
}

// defaultMessage is used when the response body carries no message.
func (k Kind) defaultMessage() string {
	switch k {
	case KindCannotConnect:
		return "Cannot connect to server"
	case KindTimeout:
		return "Timeout"
	case KindServer:
		return "Server error"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "Not found"
	case KindRejected:
		return "Rejected"
	case KindBadData:
		return "Bad data"
	default:
		return "Unknown error"
	}
}
