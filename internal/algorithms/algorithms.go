// package algorithms provides generified map/filter/set functions.
package algorithms

// Map applies the function f to each element of the slice and returns a new slice containing the results.
func Map[T, R any](s []T, f func(T) R) []R {
	r := make([]R, 0, len(s))
	for _, v := range s {
		r = append(r, f(v))
	}
	return r
}

// Filter returns a new slice containing all elements of the slice that satisfy the predicate function.
func Filter[T any](s []T, f func(T) bool) []T {
	r := make([]T, 0, len(s))
	for _, v := range s {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

// Equal returns true if all elements are equal.
func Equal[T comparable](first, second T, rest ...T) bool {
	if first != second {
		return false
	}
	if len(rest) > 0 {
		return Equal(second, rest[0], rest[1:]...)
	}
	return true
}

// Difference returns the elements of a which are not present in b, in the order they appear in a.
func Difference[T comparable](a, b []T) []T {
	seen := make(map[T]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}
	return Filter(a, func(v T) bool {
		_, ok := seen[v]
		return !ok
	})
}

// Uniq returns a copy of s with duplicate elements removed, keeping the first occurrence.
func Uniq[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	return Filter(s, func(v T) bool {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
		return true
	})
}

// SameSet reports whether a and b contain the same elements, ignoring order and duplicates.
func SameSet[T comparable](a, b []T) bool {
	return len(Difference(a, b)) == 0 && len(Difference(b, a)) == 0
}

// SliceEqual reports whether a and b hold the same elements in the same order.
func SliceEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
