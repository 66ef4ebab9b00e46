package duplicates

import "civreg/internal/record/models"

// Classification is the duplicate status of a draft.
type Classification string

const (
	None    Classification = "none"
	Similar Classification = "similar"
	Exact   Classification = "exact"
)

// Blocking reports whether the classification prevents submission.
// Similar matches are advisory only.
func (c Classification) Blocking() bool {
	return c == Exact
}

// Classify derives the classification of tuple from a search result.
// Exact when the collaborator says so or any candidate carries the same
// normalized tuple; similar when there are other candidates; none otherwise.
func Classify(tuple models.Tuple, res models.DuplicateResult) Classification {
	if res.IsDuplicate {
		return Exact
	}
	for _, c := range res.SimilarRecords {
		if c.Exact || c.Tuple().Matches(tuple) {
			return Exact
		}
	}
	if len(res.SimilarRecords) > 0 {
		return Similar
	}
	return None
}
