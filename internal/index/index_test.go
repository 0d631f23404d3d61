package index

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxp-lang/pxp-sub001/internal/entity"
	"github.com/pxp-lang/pxp-sub001/internal/types"
)

func newTestEntity(name string) *entity.FunctionEntity {
	return &entity.FunctionEntity{
		QualifiedName: name,
		Name:          name,
		ReturnType:    types.Void,
	}
}

func TestIndex_RoundTrip(t *testing.T) {
	t.Parallel()
	ix := New()

	e := newTestEntity(`ns\f`)
	ix.AddFunction(`ns\f`, e)

	got, ok := ix.Function(`ns\f`)
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = ix.Function("missing")
	assert.False(t, ok)
}

func TestIndex_LookupIsExact(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.AddFunction(`ns\strlen`, newTestEntity(`ns\strlen`))

	for _, name := range []string{"strlen", `\ns\strlen`, `NS\strlen`, `ns\strle`} {
		_, ok := ix.Function(name)
		assert.False(t, ok, name)
	}
}

func TestIndex_LastWriteWins(t *testing.T) {
	t.Parallel()
	ix := New()

	first := newTestEntity("f")
	second := newTestEntity("f")
	ix.AddFunction("f", first)
	ix.AddFunction("f", second)

	got, ok := ix.Function("f")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_NamesAndFunctionsSorted(t *testing.T) {
	t.Parallel()
	ix := New()
	for _, name := range []string{"c", `b\x`, "a"} {
		ix.AddFunction(name, newTestEntity(name))
	}

	assert.Equal(t, []string{"a", `b\x`, "c"}, ix.Names())

	fns := ix.Functions()
	require.Len(t, fns, 3)
	assert.Equal(t, "a", fns[0].QualifiedName)
	assert.Equal(t, "c", fns[2].QualifiedName)
}

func TestIndex_Merge(t *testing.T) {
	t.Parallel()
	dst := New()
	dst.AddFunction("keep", newTestEntity("keep"))
	dst.AddFunction("shared", newTestEntity("shared"))

	src := New()
	replacement := newTestEntity("shared")
	src.AddFunction("shared", replacement)
	src.AddFunction("new", newTestEntity("new"))

	dst.Merge(src)
	dst.Merge(nil)
	dst.Merge(dst)

	assert.Equal(t, []string{"keep", "new", "shared"}, dst.Names())
	got, _ := dst.Function("shared")
	assert.Same(t, replacement, got)
	assert.Equal(t, 2, src.Len(), "merge must not modify its argument")
}

func TestIndex_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	ix := New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("w%d\\f%d", w, i)
				ix.AddFunction(name, newTestEntity(name))
				_, _ = ix.Function(name)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 800, ix.Len())
}
