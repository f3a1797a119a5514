package reward

import "doodleduel/internal/domain"

// Edge is a status transition that grants rewards
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRoundEnd
	EdgeGameEnd
)

// EdgeDetector compares each observed status and round with the previous
// pair so that a status seen on many consecutive polls grants once, while the
// results of a later round still count when the polls in between were missed.
// The first observation never counts as an edge.
type EdgeDetector struct {
	last  domain.Status
	round int
	seen  bool
}

// Observe records status and round and reports the edge they complete, if any
func (d *EdgeDetector) Observe(status domain.Status, round int) Edge {
	prevStatus, prevRound, seen := d.last, d.round, d.seen
	d.last, d.round, d.seen = status, round, true

	if !seen || (prevStatus == status && prevRound == round) {
		return EdgeNone
	}
	switch status {
	case domain.StatusResults:
		return EdgeRoundEnd
	case domain.StatusFinal:
		return EdgeGameEnd
	}
	return EdgeNone
}

// Reset forgets the previous status, e.g. when switching rooms
func (d *EdgeDetector) Reset() {
	d.last, d.round, d.seen = "", 0, false
}
