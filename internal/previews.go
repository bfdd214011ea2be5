package internal

import "sort"

// ListPreviews builds a preview for every stored session from its last
// record, newest first. Sessions whose last record is not a prompt are
// left out.
func ListPreviews(logs *LogStore, reconstructor *Reconstructor, activeID string) ([]SessionPreview, error) {
	ids, err := logs.List()
	if err != nil {
		return nil, err
	}

	previews := make([]SessionPreview, 0, len(ids))
	for _, id := range ids {
		turn, err := reconstructor.MostRecentTurn(id)
		if err != nil {
			LogDebug("No preview for session %s: %v", id, err)
			continue
		}
		if turn.UserPrompt == "" {
			continue
		}
		previews = append(previews, NewSessionPreview(id, turn, id == activeID))
	}

	sort.SliceStable(previews, func(i, j int) bool {
		if !previews[i].LastActive.Equal(previews[j].LastActive) {
			return previews[i].LastActive.After(previews[j].LastActive)
		}
		return previews[i].SessionID < previews[j].SessionID
	})
	return previews, nil
}
