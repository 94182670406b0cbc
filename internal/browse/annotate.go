package browse

import "github.com/terra-clan/problem-browser/internal/models"

// ProgressLookup resolves the progress of one problem
type ProgressLookup interface {
	Get(contestID int, index string) models.Progress
}

// Annotate pairs each displayed problem with its progress and returns the
// entries with the done count.
func Annotate(problems []models.Problem, lookup ProgressLookup) ([]models.Entry, int) {
	entries := make([]models.Entry, 0, len(problems))
	done := 0
	for _, p := range problems {
		progress := lookup.Get(p.ContestID, p.Index)
		if progress.Done {
			done++
		}
		entries = append(entries, models.Entry{Problem: p, Progress: progress})
	}
	return entries, done
}
