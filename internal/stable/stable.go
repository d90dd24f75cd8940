// Package stable sorts slices by an integer key while keeping the relative
// order of elements that share a key.
package stable

import (
	"cmp"
	"slices"
)

// SortByKey sorts items in place, ascending by key. Elements with equal keys
// keep the order they had before the call.
func SortByKey[T any](items []T, key func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
