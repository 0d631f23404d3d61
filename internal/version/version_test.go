package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"8", "8.0"},
		{"8.2", "8.2"},
		{" 8.2 ", "8.2"},
		{"8.2.0", "8.2"},
		{"8.1.4", "8.1.4"},
		{"10.0", "10.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
			assert.False(t, v.IsZero())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "eight", "8.x", "v8.2", "8.2-dev", "8.2+build", "8..2"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"8.2", "8.2.0", 0},
		{"8.1", "8.2", -1},
		{"8.10", "8.9", 1},
		{"7.4", "8.0", -1},
		{"8.1.1", "8.1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, tt.want < 0, a.Less(b))
		})
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	vs, err := ParseList("8.3, 8.0,8.1,,8.3.0, 8.2")
	require.NoError(t, err)

	var got []string
	for _, v := range vs {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"8.0", "8.1", "8.2", "8.3"}, got)

	_, err = ParseList("8.0,nope")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { MustParse("nope") })
}

func TestZeroValue(t *testing.T) {
	t.Parallel()
	var v Version
	assert.True(t, v.IsZero())
	assert.Equal(t, "", v.String())
}
