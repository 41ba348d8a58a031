package grouper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLinesGrouperParsesGroups(t *testing.T) {
	input := `{"files":[{"path":"/a"},{"path":"/b"}]}` + "\n" +
		`{"files":[{"path":"/c"},{"path":"/d"},{"path":"/e"}]}` + "\n"

	g := NewJSONLinesGrouper(strings.NewReader(input))
	groups, err := g.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"/a", "/b"}, groups[0].Paths())
	assert.Equal(t, []string{"/c", "/d", "/e"}, groups[1].Paths())
}

func TestJSONLinesGrouperDropsSingletons(t *testing.T) {
	input := `{"files":[{"path":"/lonely"}]}` + "\n" +
		`{"files":[{"path":"/a"},{"path":"/b"}]}` + "\n"

	g := NewJSONLinesGrouper(strings.NewReader(input))
	groups, err := g.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/a", "/b"}, groups[0].Paths())
}

func TestJSONLinesGrouperSkipsBlankLines(t *testing.T) {
	input := "\n" + `{"files":[{"path":"/a"},{"path":"/b"}]}` + "\n\n"

	g := NewJSONLinesGrouper(strings.NewReader(input))
	groups, err := g.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
}

func TestJSONLinesGrouperInvalidJSONErrors(t *testing.T) {
	g := NewJSONLinesGrouper(strings.NewReader("not json\n"))
	_, err := g.Groups()
	assert.Error(t, err)
}

func TestJSONLinesGrouperEmptyInput(t *testing.T) {
	g := NewJSONLinesGrouper(strings.NewReader(""))
	groups, err := g.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)
}
