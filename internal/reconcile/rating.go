package reconcile

import (
	"math"

	"listing-portal/internal/models"
)

// ActivityRatingSource derives an agent rating from catalog activity.
// It serves as the default until a review-backed source exists; any
// implementation only has to produce a number in [0, 5].
type ActivityRatingSource struct {
	counter AgentCounter
}

// NewActivityRatingSource creates the default rating source
func NewActivityRatingSource(counter AgentCounter) *ActivityRatingSource {
	return &ActivityRatingSource{counter: counter}
}

// AgentRating maps the agent's active-listing count onto a bounded
// rating: a base of 2.5 plus a logarithmic activity bonus, capped at 5.
func (s *ActivityRatingSource) AgentRating(agent models.Agent) (float64, error) {
	active, err := s.counter.CountByAgent(agent.ID, []models.CatalogStatus{
		models.CatalogStatusActive,
	})
	if err != nil {
		return 0, err
	}

	rating := 2.5 + 1.5*math.Log10(float64(active)+1)
	if rating > 5 {
		rating = 5
	}
	// Two decimal places, matching the column precision
	return math.Round(rating*100) / 100, nil
}
