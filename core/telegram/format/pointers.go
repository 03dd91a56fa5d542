package format

import "fmt"

// Deref safely dereferences p and returns def if p is nil.
func Deref[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// OrPlaceholder renders *p with %v, or placeholder when p is nil.
func OrPlaceholder[T any](p *T, placeholder string) string {
	if p == nil {
		return placeholder
	}
	return fmt.Sprint(*p)
}
