// Package conflict decides which of several overlapping passes gets the
// single antenna. The policy is deterministic: an explicit user selection
// beats automatic ranking, and ranking prefers the higher culmination with
// the earlier rise breaking ties.
package conflict

import (
	"sort"

	"github.com/palydovai/stotis/internal/plan"
)

// Overlap returns the IDs whose windows intersect the candidate's window,
// the candidate included. An ID missing from the index overlaps only
// itself.
func Overlap(id string, idx plan.Index) []string {
	p, ok := idx[id]
	if !ok {
		return []string{id}
	}

	var group []string
	for q, e := range idx {
		if e.St < p.En && e.En > p.St {
			group = append(group, q)
		}
	}
	sort.Strings(group)
	return group
}

// Winner resolves the candidate against its overlap group and returns the
// winning ID plus a skip reason. The reason is empty exactly when the
// candidate itself wins. Selection entries that refer to unknown passes are
// ignored.
func Winner(id string, idx plan.Index, selected []string) (string, string) {
	group := Overlap(id, idx)
	if len(group) == 1 {
		return id, ""
	}

	sel := make(map[string]bool, len(selected))
	for _, s := range selected {
		sel[s] = true
	}

	var pool []string
	for _, q := range group {
		if sel[q] {
			pool = append(pool, q)
		}
	}

	if len(pool) > 0 {
		w := best(pool, idx)
		if w == id {
			return w, ""
		}
		return w, "conflict: user-selected " + w
	}

	w := best(group, idx)
	if w == id {
		return w, ""
	}
	return w, "conflict: prefer " + w + " by max elevation"
}

// best returns the ID with the highest peak elevation, breaking ties by
// earlier rise and finally by ID so equal inputs always rank identically.
func best(ids []string, idx plan.Index) string {
	w := ids[0]
	we := idx[w]
	for _, q := range ids[1:] {
		qe := idx[q]
		switch {
		case qe.MaxElev > we.MaxElev:
			w, we = q, qe
		case qe.MaxElev == we.MaxElev && qe.St < we.St:
			w, we = q, qe
		case qe.MaxElev == we.MaxElev && qe.St == we.St && q < w:
			w, we = q, qe
		}
	}
	return w
}
