package label_test

import (
	"encoding/json"
	"testing"

	"github.com/strangelove-ventures/labeltest/label"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	require.Equal(t, label.Slow, label.New(" Slow\t"))
	require.Equal(t, label.Label(""), label.New("   "))

	require.True(t, label.Slow.Valid())
	require.False(t, label.Label("Slow").Valid())
	require.False(t, label.Label("").Valid())
}

func TestRegister(t *testing.T) {
	const custom label.Label = "needs-gpu"
	require.False(t, custom.IsKnown())

	label.Register(custom)
	require.True(t, custom.IsKnown())

	require.Panics(t, func() {
		label.Register(custom)
	}, "double registration must panic")

	require.Panics(t, func() {
		label.Register(" Bad ")
	}, "non-canonical labels must be rejected")

	require.True(t, label.Slow.IsKnown())
}

func TestSet(t *testing.T) {
	t.Run("zero value is empty", func(t *testing.T) {
		var s label.Set
		require.True(t, s.Empty())
		require.False(t, s.Has(label.Slow))
		require.False(t, s.Intersects(label.NewSet(label.Slow)))
		require.Empty(t, s.Labels())
		require.Equal(t, "{}", s.String())
	})

	t.Run("canonicalizes and drops empty", func(t *testing.T) {
		s := label.ParseSet("SLOW", " ", "flaky", "slow")
		require.Equal(t, 2, s.Len())
		require.Equal(t, []label.Label{label.Flaky, label.Slow}, s.Labels())
	})

	t.Run("has compares canonical forms", func(t *testing.T) {
		s := label.NewSet(label.Slow)
		require.True(t, s.Has("Slow"))
		require.True(t, s.Has(" SLOW "))
		require.False(t, s.Has(""))
	})

	t.Run("subset", func(t *testing.T) {
		a := label.NewSet(label.Slow)
		b := label.NewSet(label.Slow, label.Integration)

		require.True(t, a.SubsetOf(b))
		require.False(t, b.SubsetOf(a))
		require.True(t, label.Set{}.SubsetOf(a))
		require.True(t, b.SubsetOf(b))
	})

	t.Run("intersects", func(t *testing.T) {
		a := label.NewSet(label.Slow, label.Integration)
		b := label.NewSet(label.Integration, label.Flaky, label.Slow)

		l, ok := a.FirstCommon(b)
		require.True(t, ok)
		require.Equal(t, label.Integration, l)

		require.False(t, a.Intersects(label.NewSet(label.Timeout)))
	})

	t.Run("union does not mutate", func(t *testing.T) {
		a := label.NewSet(label.Slow)
		b := label.NewSet(label.Flaky)
		u := a.Union(b)

		require.Equal(t, 1, a.Len())
		require.Equal(t, 1, b.Len())
		require.True(t, u.Equal(label.NewSet(label.Flaky, label.Slow)))
	})

	t.Run("labels returns a copy", func(t *testing.T) {
		s := label.NewSet(label.Slow)
		ls := s.Labels()
		ls[0] = label.Flaky
		require.True(t, s.Has(label.Slow))
		require.False(t, s.Has(label.Flaky))
	})
}

func TestSet_JSON(t *testing.T) {
	s := label.NewSet(label.Slow, label.Flaky)
	b, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `["flaky","slow"]`, string(b))

	var got label.Set
	require.NoError(t, json.Unmarshal([]byte(`["Slow", "", "integration"]`), &got))
	require.True(t, got.Equal(label.NewSet(label.Slow, label.Integration)))
}
