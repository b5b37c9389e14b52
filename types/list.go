package types

import (
	"fmt"
	"slices"
)

// List is an insertion ordered list of comparable values.
type List[T comparable] struct {
	data []T
}

func NewList[T comparable]() *List[T] {
	return &List[T]{
		data: make([]T, 0),
	}
}

func (l *List[T]) Get(idx int) (T, error) {
	var empty T
	if idx > len(l.data)-1 || idx < 0 {
		return empty, fmt.Errorf("index out of range. idx %d len %d",
			idx,
			len(l.data))
	}
	return l.data[idx], nil
}

func (l *List[T]) Append(val T) {
	l.data = append(l.data, val)
}

// AppendUnique appends val unless it is already present and reports whether
// it was added.
func (l *List[T]) AppendUnique(val T) bool {
	if l.Contains(val) {
		return false
	}
	l.Append(val)
	return true
}

func (l *List[T]) Clear() {
	l.data = l.data[:0]
}

// return first index of val, or -1
func (l *List[T]) IndexOf(val T) int {
	return slices.Index(l.data, val)
}

// Delete removes the first occurrence of val and reports whether there was one.
func (l *List[T]) Delete(val T) bool {
	idx := l.IndexOf(val)
	if idx == -1 {
		return false
	}
	l.data = slices.Delete(l.data, idx, idx+1)
	return true
}

func (l *List[T]) Contains(val T) bool {
	return l.IndexOf(val) != -1
}

func (l *List[T]) Len() int {
	return len(l.data)
}

// Slice returns a copy of the elements in order.
func (l *List[T]) Slice() []T {
	return slices.Clone(l.data)
}
