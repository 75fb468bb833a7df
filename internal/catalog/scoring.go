package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"bookcatalog/internal/types"
)

const (
	defaultAuthorScore = 5
	maxRoundedScore    = 10
	ratingMessage      = "Book score."

	publicationWeight = 0.7
	authorWeight      = 0.3
)

// DefaultAuthorScores is used when no mapping is configured.
var DefaultAuthorScores = map[string]int{
	"Auteur 1": 10,
	"Auteur 2": 8,
	"Auteur 3": 5,
}

type Scorer struct {
	authorScores map[string]int
	now          func() time.Time
}

// NewScorer copies authorScores, a nil map means DefaultAuthorScores.
func NewScorer(authorScores map[string]int) *Scorer {
	if authorScores == nil {
		authorScores = DefaultAuthorScores
	}

	scores := make(map[string]int, len(authorScores))
	for name, score := range authorScores {
		scores[name] = score
	}

	return &Scorer{authorScores: scores, now: time.Now}
}

// Rate scores a book from its publication year and author.
// The rounded score is capped at 10 and has no lower bound.
func (s *Scorer) Rate(book *types.Book) types.Rating {
	currentYear := s.now().Year()
	publicationYear := book.PublicationDate.Year()

	publicationScore := 10 - (currentYear - publicationYear)
	if publicationScore < 1 {
		publicationScore = 1
	}

	authorScore, ok := s.authorScores[book.Author]
	if !ok {
		authorScore = defaultAuthorScore
	}

	score := float64(publicationScore)*publicationWeight + float64(authorScore)*authorWeight

	rounded := int(math.Floor(score + 0.5))
	if rounded > maxRoundedScore {
		rounded = maxRoundedScore
	}

	return types.Rating{
		Message:      ratingMessage,
		Score:        score,
		ScoreRounded: rounded,
	}
}

// ParseAuthorScores reads a JSON object of author name to integer score.
func ParseAuthorScores(raw string) (map[string]int, error) {
	var scores map[string]int
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("parsing author scores: %w", err)
	}

	return scores, nil
}
