package stage

import (
	"regexp"
	"strings"
)

var (
	bracketMarkerPattern = regexp.MustCompile(`(?i)\[\s*(VISUAL|PAUSE|MUSIC|SFX|CUT|FADE|B-ROLL|NOTE)[^\]]*\]`)

	metaLabelLinePattern = regexp.MustCompile(`(?im)^\s*(Word Count|TTS Pacing|AI Detection|Visual Synergy|Emotional Flow|Accuracy|P\.S\.|Sources)\s*:.*$`)
	wpmLinePattern       = regexp.MustCompile(`(?im)^\s*\d+\s*WPM\s*$`)
	horizontalRulePattern = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
	markdownHeadingPattern = regexp.MustCompile(`(?m)^\s*#{1,6}\s*(.*)$`)

	whitespaceRunPattern = regexp.MustCompile(`[ \t]+`)
	blankLineRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// Clean strips a raw LLM script of bracketed stage markers, meta-label
// lines, word-count/WPM footers, horizontal rules, and markdown heading
// lines entirely, then collapses runs of whitespace. Headings mark scene
// boundaries (see HeadingCount) but are never narrated, so their text is
// dropped rather than kept as a bare line. Clean is pure: the same input
// always produces the same output, and Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	s := bracketMarkerPattern.ReplaceAllString(raw, "")
	s = metaLabelLinePattern.ReplaceAllString(s, "")
	s = wpmLinePattern.ReplaceAllString(s, "")
	s = horizontalRulePattern.ReplaceAllString(s, "")
	s = markdownHeadingPattern.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := whitespaceRunPattern.ReplaceAllString(line, " ")
		trimmed = strings.TrimSpace(trimmed)
		cleanedLines = append(cleanedLines, trimmed)
	}
	s = strings.Join(cleanedLines, "\n")
	s = blankLineRunPattern.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n ")
}

// HeadingCount reports how many markdown heading lines the raw script
// contains, counted before Clean discards them. Each heading marks a scene
// boundary for the Visuals stage even though its text is never narrated.
func HeadingCount(raw string) int {
	return len(markdownHeadingPattern.FindAllStringIndex(raw, -1))
}

// NonEmptyLineCount reports how many non-blank lines remain in a cleaned
// script, used to enforce the Script stage's "at least one non-empty
// line" cap.
func NonEmptyLineCount(cleaned string) int {
	n := 0
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
