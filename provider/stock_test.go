package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordsFiltersStopWordsAndShortWords(t *testing.T) {
	got := Keywords("The quick brown fox jumps over the lazy dog and runs away")
	require.NotContains(t, got, "the")
	require.NotContains(t, got, "and")
	require.Contains(t, got, "quick")
	require.Contains(t, got, "brown")
	require.LessOrEqual(t, len(got), 5)
}

func TestKeywordsDeduplicates(t *testing.T) {
	got := Keywords("mountain mountain mountain river")
	count := 0
	for _, k := range got {
		if k == "mountain" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestOrientationTag(t *testing.T) {
	require.Equal(t, "vertical", orientationTag("9:16"))
	require.Equal(t, "horizontal", orientationTag("16:9"))
	require.Equal(t, "square", orientationTag("1:1"))
	require.Equal(t, "standard", orientationTag("4:3"))
}
