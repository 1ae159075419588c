package reveal

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// DefaultWordsPerSecond is the reading speed used when none is configured.
const DefaultWordsPerSecond = 3.5

// MinUnitDuration is the shortest estimated duration of any unit.
const MinUnitDuration = time.Second

var blankLines = regexp.MustCompile(`\n[ \t]*\n`)

// SplitParagraphs splits text into paragraphs on blank lines. Surrounding
// whitespace is trimmed and empty paragraphs are dropped.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := []string{}
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EstimateDuration estimates how long text takes to consume at
// wordsPerSecond. Non-positive speeds fall back to DefaultWordsPerSecond.
// The result is never below MinUnitDuration.
func EstimateDuration(text string, wordsPerSecond float64) time.Duration {
	if wordsPerSecond <= 0 {
		wordsPerSecond = DefaultWordsPerSecond
	}
	words := len(strings.Fields(text))
	d := time.Duration(math.Ceil(float64(words) / wordsPerSecond * float64(time.Second)))
	if d < MinUnitDuration {
		return MinUnitDuration
	}
	return d
}

// Unit is one revealable piece of content.
type Unit struct {
	Text     string
	Words    int
	Duration time.Duration
}

// UnitsFromText splits text into paragraph units with estimated durations.
func UnitsFromText(text string, wordsPerSecond float64) []Unit {
	paragraphs := SplitParagraphs(text)
	units := make([]Unit, len(paragraphs))
	for i, p := range paragraphs {
		units[i] = Unit{
			Text:     p,
			Words:    len(strings.Fields(p)),
			Duration: EstimateDuration(p, wordsPerSecond),
		}
	}
	return units
}
