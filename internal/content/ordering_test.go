package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNeighborsCyclic(t *testing.T) {
	works := []string{"A", "B", "C", "D"}

	prev, next, ok := Neighbors(works, 0)
	require.True(t, ok)
	require.Equal(t, "D", prev)
	require.Equal(t, "B", next)

	prev, next, ok = Neighbors(works, 3)
	require.True(t, ok)
	require.Equal(t, "C", prev)
	require.Equal(t, "A", next)

	_, _, ok = Neighbors(works, 4)
	require.False(t, ok)
	_, _, ok = Neighbors(works, -1)
	require.False(t, ok)
}

func TestNeighborsSingleton(t *testing.T) {
	prev, next, ok := Neighbors([]string{"A"}, 0)
	require.True(t, ok)
	require.Equal(t, "A", prev)
	require.Equal(t, "A", next)
}

func TestRing(t *testing.T) {
	links := Ring([]int{1, 2, 3})
	require.Equal(t, []Link[int]{
		{Value: 1, Previous: 3, Next: 2},
		{Value: 2, Previous: 1, Next: 3},
		{Value: 3, Previous: 2, Next: 1},
	}, links)
	require.Empty(t, Ring[int](nil))
}

func TestIndexOf(t *testing.T) {
	list := []string{"a", "b"}
	require.Equal(t, 1, IndexOf(list, func(s string) bool { return s == "b" }))
	require.Equal(t, -1, IndexOf(list, func(s string) bool { return s == "z" }))
}
