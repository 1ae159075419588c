package reveal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitParagraphs(t *testing.T) {
	text := "  First paragraph.\n\nSecond one\nstill second.\r\n\r\n\n   \nThird.  \n"
	assert.Equal(t, []string{"First paragraph.", "Second one\nstill second.", "Third."}, SplitParagraphs(text))
	assert.Equal(t, []string{}, SplitParagraphs("   \n\n  "))
}

func TestEstimateDuration(t *testing.T) {
	seven := "one two three four five six seven"
	assert.Equal(t, 2*time.Second, EstimateDuration(seven, 3.5))
	assert.Equal(t, 7*time.Second, EstimateDuration(seven, 1))
	assert.Equal(t, MinUnitDuration, EstimateDuration("Amen.", 3.5))
	assert.Equal(t, MinUnitDuration, EstimateDuration("", 3.5))
	assert.Equal(t, EstimateDuration(seven, DefaultWordsPerSecond), EstimateDuration(seven, 0), "non-positive speed uses default")
}

func TestUnitsFromText(t *testing.T) {
	units := UnitsFromText("a b c d\n\ne f", 2)
	assert.Len(t, units, 2)
	assert.Equal(t, 4, units[0].Words)
	assert.Equal(t, 2*time.Second, units[0].Duration)
	assert.Equal(t, "e f", units[1].Text)
	assert.Equal(t, MinUnitDuration, units[1].Duration)
}
