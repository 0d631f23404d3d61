package docblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxp-lang/pxp-sub001/internal/types"
)

func TestParse_NotADocblock(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("// line comment"))
	assert.Nil(t, Parse("/* block comment */"))
	assert.Nil(t, Parse("# hash"))
}

func TestParse_SummaryAndTags(t *testing.T) {
	t.Parallel()

	d := Parse(`/**
	 * Returns the length of a string.
	 * Multibyte aware.
	 *
	 * Longer description that is not part of the summary.
	 *
	 * @param string $string The input
	 *                       spanning two lines.
	 * @param int|null $offset
	 * @return int
	 * @deprecated
	 */`)
	require.NotNil(t, d)

	assert.Equal(t, "Returns the length of a string. Multibyte aware.", d.Summary)
	require.Len(t, d.Tags, 4)
	assert.Equal(t, "param", d.Tags[0].Name)
	assert.Equal(t, "string $string The input spanning two lines.", d.Tags[0].Body)
	assert.True(t, d.Deprecated)

	p, ok := d.Param("string")
	require.True(t, ok)
	assert.Equal(t, "string", types.Convert(p.Type).String())
	assert.Equal(t, "The input spanning two lines.", p.Description)

	p, ok = d.Param("offset")
	require.True(t, ok)
	assert.Equal(t, "int|null", types.Convert(p.Type).String())

	assert.Equal(t, "int", types.Convert(d.Return).String())
}

func TestParse_ParamShapes(t *testing.T) {
	t.Parallel()

	d := Parse(`/**
	 * @param $untyped
	 * @param array<int, string> $map
	 * @param mixed &$out
	 * @param string ...$parts
	 * @param callable(int): void $cb
	 */`)
	require.NotNil(t, d)

	p, ok := d.Param("untyped")
	require.True(t, ok)
	assert.Nil(t, p.Type)

	p, ok = d.Param("map")
	require.True(t, ok)
	assert.Equal(t, "array", types.Convert(p.Type).String())

	p, ok = d.Param("out")
	require.True(t, ok)
	assert.True(t, p.ByReference)

	p, ok = d.Param("parts")
	require.True(t, ok)
	assert.True(t, p.Variadic)
	assert.Equal(t, "string", types.Convert(p.Type).String())

	p, ok = d.Param("cb")
	require.True(t, ok)
	assert.Equal(t, "callable", types.Convert(p.Type).String())
}

func TestParse_PrefixedTagsWin(t *testing.T) {
	t.Parallel()

	d := Parse(`/**
	 * @phpstan-return non-empty-string
	 * @return string|false
	 */`)
	require.NotNil(t, d)
	assert.Equal(t, "string", types.Convert(d.Return).String())
}

func TestParse_NilDocblockParam(t *testing.T) {
	t.Parallel()

	var d *Docblock
	_, ok := d.Param("x")
	assert.False(t, ok)
}

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"INT", "int"},
		{"integer", "int"},
		{"boolean", "bool"},
		{"?Foo", "?Foo"},
		{`\Foo\Bar`, "Foo\\Bar"},
		{"Foo[]", "array"},
		{"list<Foo>", "array"},
		{"array{foo: int, bar?: string}", "array"},
		{"iterable<int, Foo>", "iterable"},
		{"Collection<int, User>", "Collection"},
		{"A&B", "A&B"},
		{"(A&B)|null", "(A&B)|null"},
		{"array-key", "int|string"},
		{"$this", "static"},
		{"'foo'|'bar'", "string|string"},
		{"1|2", "int|int"},
		{"Foo::BAR", "mixed"},
		{"some-unknown-pseudo", "mixed"},
		{"Closure(int): string", "Closure"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := ParseType(tt.in)
			require.NotNil(t, n)
			assert.Equal(t, tt.want, types.Convert(n).String())
		})
	}
}

func TestParseType_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "array<int", "(A|B", "|"} {
		assert.Nil(t, ParseType(in), in)
	}
}
