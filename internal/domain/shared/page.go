package shared

// Page is one slice of a cursor-paginated listing. Next is the opaque
// continuation cursor returned by the remote service; empty means the
// listing is exhausted.
type Page[T any] struct {
	Items []T
	Next  string
}

// HasMore reports whether another page can be requested
func (p Page[T]) HasMore() bool {
	return p.Next != ""
}
