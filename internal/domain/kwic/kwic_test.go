package kwic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindKWIC_ExactMatch(t *testing.T) {
	tokens := []string{"The", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}
	r, ok, err := FindKWIC(tokens, "fox", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"quick", "brown"}, r.Left)
	assert.Equal(t, "fox", r.Match)
	assert.Equal(t, []string{"jumps", "over"}, r.Right)
}

func TestFindKWIC_CasePreserved(t *testing.T) {
	r, ok, err := FindKWIC([]string{"The", "Quick", "Brown", "Fox"}, "brown", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Brown", r.Match)
	assert.Equal(t, []string{"Quick"}, r.Left)
	assert.Equal(t, []string{"Fox"}, r.Right)
}

func TestFindKWIC_UppercaseQuery(t *testing.T) {
	r, ok, err := FindKWIC([]string{"a", "fox"}, "FOX", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fox", r.Match)
}

func TestFindKWIC_FirstMatchOnly(t *testing.T) {
	r, ok, err := FindKWIC([]string{"cat", "sat", "on", "the", "cat"}, "cat", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, r.Left, "anchored at index 0, not index 4")
	assert.Equal(t, []string{"sat", "on"}, r.Right)
}

func TestFindKWIC_NoMatch(t *testing.T) {
	_, ok, err := FindKWIC([]string{"The", "quick", "brown", "fox"}, "elephant", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindKWIC_NoSubstringMatch(t *testing.T) {
	_, ok, err := FindKWIC([]string{"foxes", "firefox"}, "fox", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindKWIC_BoundaryClamping(t *testing.T) {
	r, ok, err := FindKWIC([]string{"a", "b", "c"}, "a", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{}, r.Left)
	assert.Equal(t, []string{"b", "c"}, r.Right)

	r, ok, err = FindKWIC([]string{"first", "middle", "last"}, "last", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"first", "middle"}, r.Left)
	assert.Equal(t, []string{}, r.Right)
}

func TestFindKWIC_SmallContext(t *testing.T) {
	r, ok, err := FindKWIC([]string{"a", "b", "c", "d", "e", "f", "g"}, "d", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, r.Left)
	assert.Equal(t, "d", r.Match)
	assert.Equal(t, []string{"e"}, r.Right)
}

func TestFindKWIC_InvalidContextSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, _, err := FindKWIC([]string{"a"}, "a", n)
		assert.ErrorIs(t, err, ErrInvalidContextSize)
	}
}

func TestFindKWIC_DoesNotAliasTokens(t *testing.T) {
	tokens := []string{"x", "fox", "y"}
	r, ok, err := FindKWIC(tokens, "fox", 1)
	require.NoError(t, err)
	require.True(t, ok)
	r.Left[0] = "mutated"
	r.Right[0] = "mutated"
	assert.Equal(t, []string{"x", "fox", "y"}, tokens)
}

func TestMatcher_CaseSensitive(t *testing.T) {
	m, err := NewMatcher("Fox", 2, Options{CaseSensitive: true})
	require.NoError(t, err)

	_, ok := m.Find([]string{"the", "fox"})
	assert.False(t, ok)

	r, ok := m.Find([]string{"the", "fox", "and", "Fox"})
	require.True(t, ok)
	assert.Equal(t, "Fox", r.Match)
	assert.Equal(t, []string{"fox", "and"}, r.Left)
}

func TestSearch_EndToEnd(t *testing.T) {
	lines := []string{"the fox runs", "a fox sleeps"}
	results, err := Search(lines, "fox", 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Left: []string{"the"}, Match: "fox", Right: []string{"runs"}, LineNumber: 1},
		{Left: []string{"a"}, Match: "fox", Right: []string{"sleeps"}, LineNumber: 2},
	}, results)
}

func TestSearch_SkipsNonMatchingLinesKeepsNumbering(t *testing.T) {
	lines := []string{"no hit here", "", "Fox at start", "end with fox"}
	results, err := Search(lines, "fox", 5, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 3, results[0].LineNumber)
	assert.Equal(t, 4, results[1].LineNumber)
}

func TestSearch_NoResultsIsEmptyNotNil(t *testing.T) {
	results, err := Search([]string{"a b c"}, "z", 1, Options{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_InvalidContextSize(t *testing.T) {
	_, err := Search([]string{"a"}, "a", 0, Options{})
	assert.ErrorIs(t, err, ErrInvalidContextSize)
}
