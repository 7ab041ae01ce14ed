package sccp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samples() []Lattice[int64] {
	return []Lattice[int64]{
		Top[int64](),
		Bottom[int64](),
		ConstOf[int64](0),
		ConstOf[int64](5),
		ConstOf[int64](-7),
	}
}

func TestMeetIdentity(t *testing.T) {
	for _, a := range samples() {
		require.Equal(t, a, Meet(a, Top[int64]()), "meet with top")
		require.Equal(t, a, Meet(Top[int64](), a), "meet with top")
		require.Equal(t, Bottom[int64](), Meet(a, Bottom[int64]()), "meet with bottom")
		require.Equal(t, Bottom[int64](), Meet(Bottom[int64](), a), "meet with bottom")
	}
}

func TestMeetIdempotent(t *testing.T) {
	for _, a := range samples() {
		require.Equal(t, a, Meet(a, a))
	}
}

func TestMeetCommutative(t *testing.T) {
	for _, a := range samples() {
		for _, b := range samples() {
			require.Equal(t, Meet(a, b), Meet(b, a), "%v ∩ %v", a, b)
		}
	}
}

func TestMeetAssociative(t *testing.T) {
	for _, a := range samples() {
		for _, b := range samples() {
			for _, c := range samples() {
				require.Equal(t, Meet(a, Meet(b, c)), Meet(Meet(a, b), c))
			}
		}
	}
}

func TestMeetConstants(t *testing.T) {
	require.Equal(t, ConstOf[int64](5), Meet(ConstOf[int64](5), ConstOf[int64](5)))
	require.Equal(t, Bottom[int64](), Meet(ConstOf[int64](5), ConstOf[int64](6)))
}

func TestConstAccessors(t *testing.T) {
	c, ok := ConstOf[int64](42).Const()
	require.True(t, ok)
	require.Equal(t, int64(42), c)

	_, ok = Top[int64]().Const()
	require.False(t, ok)
	_, ok = Bottom[int64]().Const()
	require.False(t, ok)

	require.True(t, Top[int64]().IsTop())
	require.True(t, Bottom[int64]().IsBottom())
	require.True(t, ConstOf[int64](1).IsConst())
}

func TestBelow(t *testing.T) {
	tt := []struct {
		old, new Lattice[int64]
		ok       bool
	}{
		{Top[int64](), Top[int64](), true},
		{Top[int64](), ConstOf[int64](3), true},
		{Top[int64](), Bottom[int64](), true},
		{ConstOf[int64](3), ConstOf[int64](3), true},
		{ConstOf[int64](3), Bottom[int64](), true},
		{Bottom[int64](), Bottom[int64](), true},
		{ConstOf[int64](3), Top[int64](), false},
		{Bottom[int64](), ConstOf[int64](3), false},
		{Bottom[int64](), Top[int64](), false},
		{ConstOf[int64](3), ConstOf[int64](4), false},
	}
	for _, tc := range tt {
		require.Equal(t, tc.ok, below(tc.old, tc.new), "%v -> %v", tc.old, tc.new)
	}
}

func TestLatticeString(t *testing.T) {
	require.Equal(t, "top", Top[int64]().String())
	require.Equal(t, "bottom", Bottom[int64]().String())
	require.Equal(t, "const 3", ConstOf[int64](3).String())
}
