package problem

// Result is the envelope returned by every API operation: either ok with
// Data, a classified problem, or cancelled with nothing at all.
type Result[T any] struct {
	Kind      Kind
	Data      T
	Message   string
	Temporary bool
	Status    int
}

// OK wraps a successful value.
func OK[T any](data T) Result[T] {
	return Result[T]{Kind: KindOK, Data: data}
}

// Fail wraps a classified problem.
func Fail[T any](p Problem) Result[T] {
	return Result[T]{
		Kind:      p.Kind,
		Message:   p.Message,
		Temporary: p.Temporary,
		Status:    p.Status,
	}
}

// Cancelled is the result of a request the caller abandoned.
func Cancelled[T any]() Result[T] {
	return Result[T]{Kind: KindCancelled}
}

// IsOK reports whether the call succeeded.
func (r Result[T]) IsOK() bool { return r.Kind == KindOK }

// IsCancelled reports whether the call produced no result.
func (r Result[T]) IsCancelled() bool { return r.Kind == KindCancelled }

// Problem returns the classified failure, if there is one.
func (r Result[T]) Problem() (Problem, bool) {
	if r.Kind == KindOK || r.Kind == KindCancelled || r.Kind == "" {
		return Problem{}, false
	}
	return Problem{Kind: r.Kind, Message: r.Message, Temporary: r.Temporary, Status: r.Status}, true
}

// Err returns the problem as an error, or nil for ok and cancelled results.
func (r Result[T]) Err() error {
	if p, ok := r.Problem(); ok {
		return p
	}
	return nil
}
