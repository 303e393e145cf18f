package algorithms

import (
	"sort"
	"strings"
	"time"

	"library/models"
)

// Recommendation is a candidate book with its match score. Lower scores
// are better matches.
type Recommendation struct {
	Book    models.Book `json:"book"`
	Score   float64     `json:"score"`
	Quality string      `json:"quality"`
}

// Recommend scores every book the user has not borrowed against the
// books they have, and returns the topN best matches, best first. The
// score combines similarity to the user's books with an availability
// and recency penalty. With no borrowing history it falls back to the
// newest available books.
func Recommend(borrowed, all []models.Book, topN int) []Recommendation {
	if topN <= 0 {
		return nil
	}

	if len(borrowed) == 0 {
		return newestAvailable(all, topN)
	}

	borrowedIDs := make(map[int64]bool, len(borrowed))
	for _, b := range borrowed {
		borrowedIDs[b.ID] = true
	}

	var candidates []Recommendation
	for _, book := range all {
		if borrowedIDs[book.ID] {
			continue
		}

		// Best match against any borrowed book.
		best := 100.0
		for _, have := range borrowed {
			if s := similarity(have, book); s < best {
				best = s
			}
		}

		score := best + penalty(book)
		candidates = append(candidates, Recommendation{
			Book:    book,
			Score:   score,
			Quality: quality(score),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}

// similarity scores how close two books are: 0 identical, 100 nothing
// in common. Genre weighs 40, author 25, year 15, title word overlap 20.
func similarity(a, b models.Book) float64 {
	score := 0.0

	if !strings.EqualFold(a.Genre, b.Genre) {
		score += 40
	}
	if !strings.EqualFold(a.Author, b.Author) {
		score += 25
	}

	if a.Year != 0 && b.Year != 0 {
		diff := a.Year - b.Year
		if diff < 0 {
			diff = -diff
		}
		yearScore := float64(diff) * 1.5
		if yearScore > 15 {
			yearScore = 15
		}
		score += yearScore
	} else {
		score += 15
	}

	aWords := titleWords(a.Title)
	bWords := titleWords(b.Title)
	if len(aWords) == 0 {
		score += 20
	} else {
		common := 0
		for w := range aWords {
			if bWords[w] {
				common++
			}
		}
		overlap := float64(common) / float64(len(aWords))
		score += 20 * (1 - overlap)
	}

	return score
}

// penalty estimates how disappointing a recommendation would be
// regardless of similarity: out-of-stock and very old books rank lower.
func penalty(b models.Book) float64 {
	p := 0.0

	switch {
	case b.AvailableCopies == 0:
		p += 20
	case b.AvailableCopies == 1:
		p += 10
	}

	if b.Year == 0 {
		p += 10
	} else {
		switch age := time.Now().Year() - b.Year; {
		case age > 50:
			p += 15
		case age > 20:
			p += 10
		case age > 10:
			p += 5
		}
	}

	return p
}

func quality(score float64) string {
	switch {
	case score < 30:
		return "Excellent"
	case score < 50:
		return "Good"
	case score < 70:
		return "Fair"
	default:
		return "Poor"
	}
}

func titleWords(title string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		words[w] = true
	}
	return words
}

func newestAvailable(all []models.Book, topN int) []Recommendation {
	var available []models.Book
	for _, b := range all {
		if b.AvailableCopies > 0 {
			available = append(available, b)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Year > available[j].Year
	})

	if len(available) > topN {
		available = available[:topN]
	}

	recs := make([]Recommendation, 0, len(available))
	for _, b := range available {
		recs = append(recs, Recommendation{Book: b, Quality: "Good"})
	}
	return recs
}
