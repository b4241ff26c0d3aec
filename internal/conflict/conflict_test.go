package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/palydovai/stotis/internal/plan"
)

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func entry(riseMin, setMin int, elev float64) plan.Entry {
	return plan.Entry{
		St:      base.Add(time.Duration(riseMin) * time.Minute).Unix(),
		En:      base.Add(time.Duration(setMin) * time.Minute).Unix(),
		MaxElev: elev,
	}
}

func TestOverlapIncludesSelf(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 15, 40),
		"B": entry(10, 20, 25),
		"C": entry(60, 70, 80),
	}

	assert.ElementsMatch(t, []string{"A", "B"}, Overlap("A", idx))
	assert.ElementsMatch(t, []string{"A", "B"}, Overlap("B", idx))
	assert.Equal(t, []string{"C"}, Overlap("C", idx))
}

func TestOverlapUnknownID(t *testing.T) {
	idx := plan.Index{"A": entry(0, 15, 40)}
	assert.Equal(t, []string{"X"}, Overlap("X", idx))
}

func TestWinnerSingleton(t *testing.T) {
	idx := plan.Index{"A": entry(0, 15, 40)}
	w, reason := Winner("A", idx, nil)
	assert.Equal(t, "A", w)
	assert.Empty(t, reason)
}

// Higher peak wins when nothing is selected.
func TestWinnerByElevation(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 15, 40),
		"B": entry(10, 20, 25),
	}

	w, reason := Winner("A", idx, nil)
	assert.Equal(t, "A", w)
	assert.Empty(t, reason)

	w, reason = Winner("B", idx, nil)
	assert.Equal(t, "A", w)
	assert.Equal(t, "conflict: prefer A by max elevation", reason)
}

// A selected pass beats a higher automatic one.
func TestWinnerSelectionOverrides(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 15, 40),
		"B": entry(10, 20, 25),
	}

	w, reason := Winner("A", idx, []string{"B"})
	assert.Equal(t, "B", w)
	assert.Equal(t, "conflict: user-selected B", reason)

	w, reason = Winner("B", idx, []string{"B"})
	assert.Equal(t, "B", w)
	assert.Empty(t, reason)
}

// Among several selected passes the elevation key still applies.
func TestWinnerAmongSelected(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 30, 35),
		"B": entry(5, 25, 30),
		"C": entry(10, 28, 50),
	}
	selected := []string{"A", "B"}

	w, reason := Winner("A", idx, selected)
	assert.Equal(t, "A", w)
	assert.Empty(t, reason)

	w, reason = Winner("B", idx, selected)
	assert.Equal(t, "A", w)
	assert.Equal(t, "conflict: user-selected A", reason)

	w, reason = Winner("C", idx, selected)
	assert.Equal(t, "A", w)
	assert.Equal(t, "conflict: user-selected A", reason)
}

func TestWinnerTieOnElevation(t *testing.T) {
	idx := plan.Index{
		"LATER":   entry(5, 20, 45),
		"EARLIER": entry(0, 18, 45),
	}

	w, _ := Winner("LATER", idx, nil)
	assert.Equal(t, "EARLIER", w, "equal peaks resolve to the earlier rise")
}

// Selection entries for passes outside the group change nothing.
func TestWinnerIgnoresStaleSelection(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 15, 40),
		"B": entry(10, 20, 25),
	}

	w, reason := Winner("A", idx, []string{"GONE_PASS"})
	assert.Equal(t, "A", w)
	assert.Empty(t, reason)
}

func TestWinnerIsPure(t *testing.T) {
	idx := plan.Index{
		"A": entry(0, 15, 40),
		"B": entry(10, 20, 25),
		"C": entry(12, 40, 60),
	}
	sel := []string{"B"}

	w1, r1 := Winner("C", idx, sel)
	for i := 0; i < 50; i++ {
		w, r := Winner("C", idx, sel)
		assert.Equal(t, w1, w)
		assert.Equal(t, r1, r)
	}
}
