package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	env := NewEnvironment()

	cases := []struct {
		name string
		lhs  Number
		rhs  Number
		want string
		op   func(a, b Number) Number
	}{
		{"add", env.FromInt64(2), env.FromInt64(3), "5", func(a, b Number) Number { return a.Add(env, b) }},
		{"sub", env.FromInt64(5), env.FromInt64(3), "2", func(a, b Number) Number { return a.Sub(env, b) }},
		{"mul", env.FromInt64(4), env.FromInt64(3), "12", func(a, b Number) Number { return a.Mul(env, b) }},
		{"div", env.FromInt64(12), env.FromInt64(4), "3", func(a, b Number) Number { return a.Div(env, b) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.op(c.lhs, c.rhs)
			assert.Equal(t, c.want, got.String())
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	env := NewEnvironment()

	posInf := env.FromInt64(1).Div(env, env.Zero(false))
	assert.True(t, posInf.IsInf())
	assert.False(t, posInf.IsSigned())

	negInf := env.FromInt64(-1).Div(env, env.Zero(false))
	assert.True(t, negInf.IsInf())
	assert.True(t, negInf.IsSigned())

	nan := env.Zero(false).Div(env, env.Zero(false))
	assert.True(t, nan.IsNaN())
}

func TestStringRoundTrip(t *testing.T) {
	env := NewEnvironment()
	for _, lit := range []string{"36", "-12.5", "0.1", "1e10", "3,14"} {
		n, err := env.FromString(lit)
		require.NoError(t, err)
		s := n.String()
		n2, err := env.FromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, n2.String())
	}
}

func TestRoundingModeSwitch(t *testing.T) {
	env := NewEnvironment()
	env.SetRounding(TowardZero)
	assert.Equal(t, TowardZero, env.Rounding())
}

func TestRoundHonorsRoundingMode(t *testing.T) {
	env := NewEnvironment()
	parse := func(lit string) Number {
		n, err := env.FromString(lit)
		require.NoError(t, err)
		return n
	}
	cases := []struct {
		mode RoundingMode
		in   string
		want string
	}{
		{ToNearestEven, "2.5", "2"},
		{ToNearestEven, "3.5", "4"},
		{ToNearestEven, "-2.5", "-2"},
		{ToNearestEven, "2.6", "3"},
		{ToNearestAway, "2.5", "3"},
		{ToNearestAway, "-2.5", "-3"},
		{ToNearestAway, "2.4", "2"},
		{TowardZero, "2.9", "2"},
		{TowardZero, "-2.9", "-2"},
		{TowardPositive, "2.1", "3"},
		{TowardPositive, "-2.9", "-2"},
		{TowardNegative, "2.9", "2"},
		{TowardNegative, "-2.1", "-3"},
		{AwayFromZero, "2.1", "3"},
		{AwayFromZero, "-2.1", "-3"},
		{AwayFromZero, "2", "2"},
	}
	for _, c := range cases {
		env.SetRounding(c.mode)
		assert.Equal(t, c.want, parse(c.in).Round(env).String(), "mode %d input %s", c.mode, c.in)
	}
}

func TestComparisons(t *testing.T) {
	env := NewEnvironment()
	a := env.FromInt64(2)
	b := env.FromInt64(3)
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.True(t, a.Equal(env.FromInt64(2)))
	assert.False(t, NaN().Equal(NaN()))
}
