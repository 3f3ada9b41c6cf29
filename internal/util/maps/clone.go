package maps

import stdmaps "maps"

// Clone returns a shallow, writable copy of m. Unlike the standard library
// it never returns nil, so per-submission option overrides can be set on the
// copy without touching the shared store options.
func Clone[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return make(M)
	}
	return stdmaps.Clone(m)
}
