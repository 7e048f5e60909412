package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/readrec/pkg/domain"
)

// errorResponse carries a human-readable message shown by clients as is
type errorResponse struct {
	Error string `json:"error"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// articlesHandler returns the catalog, optionally filtered by ?category= and capped by ?limit=
func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			renderError(w, r, errors.New("invalid limit"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	articles, err := s.articles.GetArticles(r.Context(), category, limit)
	if err != nil {
		lgr.Printf("[ERROR] failed to fetch articles, category %q: %v", category, err)
		renderJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch articles"})
		return
	}
	renderJSON(w, r, http.StatusOK, articles)
}

// getUserHandler returns the user record with embedded preferences
func (s *Server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user, err := s.users.GetUser(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		renderJSON(w, r, http.StatusNotFound, errorResponse{Error: "User not found"})
		return
	case err != nil:
		lgr.Printf("[ERROR] failed to get user %s: %v", id, err)
		renderJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch user"})
		return
	}
	renderJSON(w, r, http.StatusOK, user)
}

// upsertUserHandler creates or updates a user record, userId and email are required
func (s *Server) upsertUserHandler(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	if user.ID == "" || user.Email == "" {
		renderJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Missing userId or email"})
		return
	}
	if user.Preferences != nil {
		if err := user.Preferences.Validate(); err != nil {
			renderError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	if err := s.users.UpsertUser(r.Context(), user); err != nil {
		lgr.Printf("[ERROR] failed to upsert user %s: %v", user.ID, err)
		renderJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to save user"})
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

// recommendationsHandler filters the articles sent by the client for the user
func (s *Server) recommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	lgr.Printf("[DEBUG] recommendation request: user %s, %d articles, topic %q", req.UserID, len(req.Articles), req.Topic)

	recs, err := s.recommender.Recommend(r.Context(), req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			renderJSON(w, r, http.StatusBadRequest, errorResponse{Error: "Missing userId, preferences, or articles"})
			return
		}
		lgr.Printf("[ERROR] failed to recommend for %s: %v", req.UserID, err)
		renderJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to get recommendations"})
		return
	}
	renderJSON(w, r, http.StatusOK, domain.RecommendationResponse{Recommendations: recs})
}

// recommendationsInfoHandler answers plain GET requests to the recommendations endpoint
func (s *Server) recommendationsInfoHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, map[string]string{"message": "Use POST method to get recommendations"})
}

// ratingsHandler stores an article rating from 1 to 5
func (s *Server) ratingsHandler(w http.ResponseWriter, r *http.Request) {
	var rating domain.Rating
	if err := json.NewDecoder(r.Body).Decode(&rating); err != nil {
		renderError(w, r, errors.New("invalid request body"), http.StatusBadRequest)
		return
	}
	if err := domain.Validate(rating); err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.ratings.AddRating(r.Context(), &rating); err != nil {
		lgr.Printf("[ERROR] failed to store rating of %s by %s: %v", rating.ArticleID, rating.UserID, err)
		renderJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Failed to save rating"})
		return
	}
	renderJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
