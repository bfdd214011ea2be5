package internal

// Deduplicator collapses repeated turn records
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate returns one record per turn id. The physically last record of
// an id wins, placed where the id first appeared so that turn order stays
// chronological even when a later rewrite lands after other turns.
func (d *Deduplicator) Deduplicate(turns []ChatTurn) []ChatTurn {
	position := make(map[string]int, len(turns))
	kept := make([]ChatTurn, 0, len(turns))

	for _, turn := range turns {
		if i, ok := position[turn.ID]; ok {
			kept[i] = turn
			continue
		}
		position[turn.ID] = len(kept)
		kept = append(kept, turn)
	}

	return kept
}

// Duplicates counts how many times each repeated turn id occurs
func (d *Deduplicator) Duplicates(turns []ChatTurn) map[string]int {
	counts := make(map[string]int, len(turns))
	for _, turn := range turns {
		counts[turn.ID]++
	}
	for id, n := range counts {
		if n < 2 {
			delete(counts, id)
		}
	}
	return counts
}
