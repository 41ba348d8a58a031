package target

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileOffsetResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	realFile := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(realFile, []byte("hi"), 0o644))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(realFile, link))

	viaReal, err := NewFileOffset(realFile, 5)
	require.NoError(t, err)
	viaLink, err := NewFileOffset(link, 5)
	require.NoError(t, err)

	assert.Equal(t, viaReal, viaLink)
}

func TestDeduplicationTargetVariants(t *testing.T) {
	files := NewFilesTarget([]string{"a", "b", "c"})
	assert.True(t, files.IsFiles())
	assert.False(t, files.IsSections())
	assert.Equal(t, 3, files.Len())
	assert.Equal(t, "a", files.Describe())

	sections := NewSectionsTarget(FileSectionTarget{
		Length: 100,
		Offsets: []FileOffset{
			{File: "/x", Offset: 0},
			{File: "/y", Offset: 10},
		},
	})
	assert.True(t, sections.IsSections())
	assert.Equal(t, 2, sections.Len())
}
