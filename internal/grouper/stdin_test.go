package grouper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStdinGroupsSplitsOnBlankLines(t *testing.T) {
	input := "a\nb\n\nc\nd\ne\n"
	groups, err := ReadStdinGroups(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d", "e"}}, groups)
}

func TestReadStdinGroupsDropsSingletons(t *testing.T) {
	input := "only-one\n\na\nb\n"
	groups, err := ReadStdinGroups(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, groups)
}

func TestReadStdinGroupsFlushesFinalGroupWithoutTrailingBlank(t *testing.T) {
	input := "a\nb\nc"
	groups, err := ReadStdinGroups(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}}, groups)
}

func TestReadStdinGroupsEmptyInput(t *testing.T) {
	groups, err := ReadStdinGroups(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestReadStdinGroupsTrimsWhitespace(t *testing.T) {
	input := "  a  \n  b  \n"
	groups, err := ReadStdinGroups(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}}, groups)
}
