package pruner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octylFractal/dedupetool/internal/extents"
	"github.com/octylFractal/dedupetool/internal/target"
)

func extentsOfFunc(byIndex map[int][]extents.Extent) func(int) ([]extents.Extent, error) {
	return func(i int) ([]extents.Extent, error) {
		return byIndex[i], nil
	}
}

func TestRemoveAlreadySharedNoSharingIsNoOp(t *testing.T) {
	tgt := target.NewFilesTarget([]string{"a", "b", "c"})
	extentsOf := extentsOfFunc(map[int][]extents.Extent{
		0: {{PhysicalOffset: 0, Length: 100}},
		1: {{PhysicalOffset: 1000, Length: 100}},
		2: {{PhysicalOffset: 2000, Length: 100}},
	})

	out, err := RemoveAlreadyShared(tgt, extentsOf)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Files())
}

func TestRemoveAlreadySharedEntireClusterDrops(t *testing.T) {
	tgt := target.NewFilesTarget([]string{"a", "b", "c"})
	same := []extents.Extent{{PhysicalOffset: 500, Length: 100}}
	extentsOf := extentsOfFunc(map[int][]extents.Extent{
		0: same,
		1: same,
		2: same,
	})

	out, err := RemoveAlreadyShared(tgt, extentsOf)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestRemoveAlreadySharedKeepsOneRepresentativePlusStragglers(t *testing.T) {
	tgt := target.NewFilesTarget([]string{"a", "b", "c", "d"})
	same := []extents.Extent{{PhysicalOffset: 500, Length: 100}}
	extentsOf := extentsOfFunc(map[int][]extents.Extent{
		0: same,
		1: same,
		2: {{PhysicalOffset: 9000, Length: 100}},
		3: {{PhysicalOffset: 9500, Length: 100}},
	})

	out, err := RemoveAlreadyShared(tgt, extentsOf)
	require.NoError(t, err)
	// One of {a,b} survives as the representative of the already-shared
	// pair, plus both stragglers c and d.
	assert.Equal(t, 3, out.Len())
	files := out.Files()
	assert.Contains(t, files, "c")
	assert.Contains(t, files, "d")
}

func TestRemoveAlreadySharedSkipsGroupsSmallerThanTwo(t *testing.T) {
	tgt := target.NewFilesTarget([]string{"a"})
	out, err := RemoveAlreadyShared(tgt, extentsOfFunc(nil))
	require.NoError(t, err)
	assert.Equal(t, tgt, out)
}
