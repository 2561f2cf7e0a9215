package quiz

import "sort"

// stableKeys returns map keys in sorted order so merging a single weight map
// is deterministic regardless of map iteration order.
func stableKeys(weights map[string]int) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScoreBoard accumulates per-profession score totals across a quiz run.
// Profession codes keep their first-seen order so ties resolve to the
// profession that entered the board earliest.
type ScoreBoard struct {
	order  []string
	totals map[string]int
}

// NewScoreBoard returns an empty board.
func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{totals: make(map[string]int)}
}

// Add merges an answer's weight map into the running totals.
// Codes carrying a zero weight are still registered on the board.
func (b *ScoreBoard) Add(weights map[string]int) {
	for _, code := range stableKeys(weights) {
		if _, seen := b.totals[code]; !seen {
			b.order = append(b.order, code)
		}
		b.totals[code] += weights[code]
	}
}

// Score returns the accumulated total for a profession code.
func (b *ScoreBoard) Score(code string) int {
	return b.totals[code]
}

// Totals returns a copy of the accumulated totals.
func (b *ScoreBoard) Totals() map[string]int {
	out := make(map[string]int, len(b.totals))
	for code, total := range b.totals {
		out[code] = total
	}
	return out
}

// Best returns the profession with the highest positive total. The first
// profession to reach the maximum wins ties. ok is false when the board is
// empty or every total is zero, meaning no recommendation can be made.
func (b *ScoreBoard) Best() (code string, ok bool) {
	best := ""
	bestScore := 0
	for _, c := range b.order {
		if s := b.totals[c]; s > bestScore {
			best, bestScore = c, s
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// Snapshot serializes the board for storage in conversation state.
type Snapshot struct {
	Order  []string
	Totals map[string]int
}

// Snapshot exports the board's current contents.
func (b *ScoreBoard) Snapshot() Snapshot {
	order := make([]string, len(b.order))
	copy(order, b.order)
	return Snapshot{Order: order, Totals: b.Totals()}
}

// Restore rebuilds a board from a snapshot. A zero snapshot yields an empty board.
func Restore(snap Snapshot) *ScoreBoard {
	b := NewScoreBoard()
	for _, code := range snap.Order {
		if total, ok := snap.Totals[code]; ok {
			b.order = append(b.order, code)
			b.totals[code] = total
		}
	}
	return b
}
