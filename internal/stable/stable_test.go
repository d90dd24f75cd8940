package stable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	name   string
	weight int
}

func TestSortByKey(t *testing.T) {
	items := []item{
		{"a", 15},
		{"b", 0},
		{"c", -10},
		{"d", 0},
		{"e", 15},
		{"f", -10},
	}
	SortByKey(items, func(i item) int { return i.weight })

	var names []string
	for _, i := range items {
		names = append(names, i.name)
	}
	require.Equal(t, []string{"c", "f", "b", "d", "a", "e"}, names)
}

func TestSortByKeyEmpty(t *testing.T) {
	var items []item
	SortByKey(items, func(i item) int { return i.weight })
	require.Empty(t, items)
}
