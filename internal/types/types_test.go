package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Conversion ---

func TestConvert_EveryShapeYieldsAType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Node
		want string
	}{
		{"absent", nil, "mixed"},
		{"keyword", Keyword{Name: "int"}, "int"},
		{"self", Keyword{Name: "self"}, "self"},
		{"never", Keyword{Name: "never"}, "never"},
		{"qualified name", Name{Qualified: `App\Models\User`}, `App\Models\User`},
		{"leading separator", Name{Qualified: `\Countable`}, "Countable"},
		{"nullable", NullableNode{Inner: Keyword{Name: "string"}}, "?string"},
		{"union", UnionNode{Members: []Node{Keyword{Name: "int"}, Keyword{Name: "string"}}}, "int|string"},
		{"intersection", IntersectionNode{Members: []Node{Name{Qualified: "A"}, Name{Qualified: "B"}}}, "A&B"},
		{"dnf", UnionNode{Members: []Node{
			IntersectionNode{Members: []Node{Name{Qualified: "A"}, Name{Qualified: "B"}}},
			Keyword{Name: "null"},
		}}, "(A&B)|null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestConvert_UnrecognizedKeywordFallsBackToUnknown(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Type(Unknown), Convert(Keyword{Name: "integer"}))
	assert.Equal(t, Type(Unknown), Convert(Keyword{Name: "INT"}))
}

func TestConvert_NullableCollapse(t *testing.T) {
	t.Parallel()

	single := Convert(NullableNode{Inner: Name{Qualified: "Foo"}})
	double := Convert(NullableNode{Inner: NullableNode{Inner: Name{Qualified: "Foo"}}})

	assert.True(t, Equal(single, double))
	n, ok := double.(Nullable)
	require.True(t, ok)
	_, nested := n.Inner.(Nullable)
	assert.False(t, nested)
}

func TestConvert_UnionPreservesOrder(t *testing.T) {
	t.Parallel()

	got := Convert(UnionNode{Members: []Node{Name{Qualified: "A"}, Name{Qualified: "B"}, Name{Qualified: "C"}}})
	u, ok := got.(Union)
	require.True(t, ok)
	require.Len(t, u.Members, 3)
	assert.Equal(t, "A|B|C", got.String())
}

func TestConvert_SingleMemberUnionCollapses(t *testing.T) {
	t.Parallel()
	got := Convert(UnionNode{Members: []Node{Keyword{Name: "bool"}}})
	assert.Equal(t, Type(Bool), got)
}

// --- Construction invariants ---

func TestNewUnion_Flattens(t *testing.T) {
	t.Parallel()

	inner := NewUnion(Int, String)
	got := NewUnion(inner, Null)
	u, ok := got.(Union)
	require.True(t, ok)
	assert.Len(t, u.Members, 3)
	assert.Equal(t, "int|string|null", got.String())
}

func TestNewIntersection_EmptyIsUnknown(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Type(Unknown), NewIntersection())
}

// --- Equality ---

func TestEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", Int, Int, true},
		{"different primitive", Int, Float, false},
		{"unknown is not mixed", Unknown, Mixed, false},
		{"named", Named{Name: "A"}, Named{Name: "A"}, true},
		{"named vs primitive", Named{Name: "int"}, Int, false},
		{"union order ignored", NewUnion(Int, String), NewUnion(String, Int), true},
		{"union size differs", NewUnion(Int, String), NewUnion(Int, String, Null), false},
		{"union vs intersection", NewUnion(Named{Name: "A"}, Named{Name: "B"}), NewIntersection(Named{Name: "A"}, Named{Name: "B"}), false},
		{"nullable", NewNullable(Int), NewNullable(Int), true},
		{"duplicate members", NewUnion(Int, Int), NewUnion(Int, String), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestIsNullable(t *testing.T) {
	t.Parallel()
	assert.True(t, IsNullable(NewNullable(Int)))
	assert.True(t, IsNullable(NewUnion(Int, Null)))
	assert.True(t, IsNullable(Mixed))
	assert.False(t, IsNullable(Int))
}

// --- Name mapping ---

func TestMapNames(t *testing.T) {
	t.Parallel()

	in := UnionNode{Members: []Node{
		NullableNode{Inner: Name{Qualified: "User"}},
		Keyword{Name: "int"},
	}}
	out := MapNames(in, func(s string) string { return `App\` + s })
	assert.Equal(t, `?App\User|int`, Convert(out).String())
	// Original untouched.
	assert.Equal(t, "?User|int", Convert(in).String())
}
