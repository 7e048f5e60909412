package domain

import "time"

// limits applied by the recommendation flow
const (
	MaxRecommendationInput = 20 // articles sent to the recommendation service
	MaxRecommended         = 4  // recommended articles kept from a response
	MaxDiscover            = 4  // representatives in the discover set
	MaxPerCategory         = 2  // articles per category in the provisional recommended set
)

// Article represents a single article as served by the article service.
// Articles are immutable once fetched and replaced wholesale on refetch.
type Article struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Summary   string    `json:"summary" db:"summary"`
	Content   string    `json:"content,omitempty" db:"content"`
	Category  string    `json:"category" db:"category"`
	ImageURL  string    `json:"imageUrl,omitempty" db:"image_url"`
	Link      string    `json:"link,omitempty" db:"link"`
	Tone      string    `json:"tone,omitempty" db:"tone"`
	Length    string    `json:"length,omitempty" db:"length"`
	Trending  bool      `json:"trending,omitempty" db:"trending"`
	Published time.Time `json:"published,omitzero" db:"published"`
}

// RecommendationRequest is the payload of a personalized recommendation call
type RecommendationRequest struct {
	UserID      string       `json:"userId"`
	Preferences *Preferences `json:"preferences"`
	Articles    []Article    `json:"articles"`
	Topic       string       `json:"topic,omitempty"`
}

// RecommendationResponse holds articles picked by the recommendation service
type RecommendationResponse struct {
	Recommendations []Article `json:"recommendations"`
}

// Categories returns distinct non-empty categories in first-seen order
func Categories(articles []Article) []string {
	seen := make(map[string]bool, len(articles))
	res := []string{}
	for _, a := range articles {
		if a.Category == "" || seen[a.Category] {
			continue
		}
		seen[a.Category] = true
		res = append(res, a.Category)
	}
	return res
}
