package stage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanStripsBracketMarkers(t *testing.T) {
	raw := "Hello [VISUAL: city skyline] world [PAUSE 2s] today [MUSIC fade in]."
	got := Clean(raw)
	require.NotContains(t, got, "[VISUAL")
	require.NotContains(t, got, "[PAUSE")
	require.NotContains(t, got, "[MUSIC")
	require.Contains(t, got, "Hello")
	require.Contains(t, got, "world")
}

func TestCleanStripsMetaLabelLines(t *testing.T) {
	raw := "Real line one.\nWord Count: 482\nTTS Pacing: medium\n150 WPM\n---\nReal line two."
	got := Clean(raw)
	require.NotContains(t, got, "Word Count")
	require.NotContains(t, got, "TTS Pacing")
	require.NotContains(t, got, "WPM")
	require.NotContains(t, got, "---")
	require.Contains(t, got, "Real line one.")
	require.Contains(t, got, "Real line two.")
}

func TestCleanDropsHeadingTextEntirely(t *testing.T) {
	raw := "## Introduction\nThis is scene one."
	got := Clean(raw)
	require.NotContains(t, got, "#")
	require.NotContains(t, got, "Introduction")
	require.Contains(t, got, "This is scene one.")
}

func TestHeadingCountCountsHeadingLines(t *testing.T) {
	require.Equal(t, 0, HeadingCount("no headings here"))
	require.Equal(t, 2, HeadingCount("# Intro\nsome text\n## Scene two\nmore text"))
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	raw := "Too    many     spaces."
	got := Clean(raw)
	require.Equal(t, "Too many spaces.", got)
}

func TestCleanIsIdempotent(t *testing.T) {
	raw := "## Scene\nWord Count: 10\n[PAUSE] Hello   world\n---\nSources: none"
	once := Clean(raw)
	twice := Clean(once)
	require.Equal(t, once, twice)
}

func TestNonEmptyLineCount(t *testing.T) {
	require.Equal(t, 2, NonEmptyLineCount("line one\n\nline two\n"))
	require.Equal(t, 0, NonEmptyLineCount("\n\n  \n"))
}
