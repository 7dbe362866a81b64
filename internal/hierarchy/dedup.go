package hierarchy

import "strings"

// ordered keeps values in first-seen order while letting a later value with
// the same key replace an earlier one.
type ordered[T any] struct {
	index  map[string]int
	values []T
}

func newOrdered[T any]() *ordered[T] {
	return &ordered[T]{index: make(map[string]int)}
}

func (o *ordered[T]) put(key string, v T) {
	if i, ok := o.index[key]; ok {
		o.values[i] = v
		return
	}
	o.index[key] = len(o.values)
	o.values = append(o.values, v)
}

// list returns the values, never nil.
func (o *ordered[T]) list() []T {
	if o.values == nil {
		return []T{}
	}
	return o.values
}

// fileKey folds case so that paths differing only in drive-letter or
// directory casing collapse together.
func fileKey(file string) string {
	return strings.ToLower(file)
}
