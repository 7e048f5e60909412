package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/readrec/pkg/config"
	"github.com/umputun/readrec/pkg/domain"
)

func chatServer(t *testing.T, replies ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "category: technology")
		}

		n := atomic.AddInt32(&calls, 1)
		reply := replies[min(int(n)-1, len(replies)-1)]
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: reply}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testRanker(endpoint string) *LLMRanker {
	return NewLLMRanker(config.LLMConfig{
		Endpoint:    endpoint + "/v1",
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   500,
	})
}

func TestLLMRanker_Rank(t *testing.T) {
	srv, calls := chatServer(t, "Here is the order:\n[\"c\", \"a\", \"unknown\"]")
	ranker := testRanker(srv.URL)

	candidates := []domain.Article{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C", Summary: "about c"}}
	prefs := domain.Preferences{PreferredCategory: "technology", PreferredTone: "informative", PreferredLength: "short"}
	res, err := ranker.Rank(context.Background(), prefs, "go", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(res))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestLLMRanker_RankRetriesBadJSON(t *testing.T) {
	srv, calls := chatServer(t, "no idea", `["b"]`)
	ranker := testRanker(srv.URL)

	candidates := []domain.Article{{ID: "a"}, {ID: "b"}}
	res, err := ranker.Rank(context.Background(), domain.Preferences{PreferredCategory: "technology"}, "", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(res))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestLLMRanker_RankGivesUp(t *testing.T) {
	srv, calls := chatServer(t, "still thinking")
	ranker := testRanker(srv.URL)

	_, err := ranker.Rank(context.Background(), domain.Preferences{PreferredCategory: "technology"}, "", []domain.Article{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestLLMRanker_RankServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testRanker(srv.URL).Rank(context.Background(), domain.Preferences{}, "", []domain.Article{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm request failed")
}

func TestLLMRanker_ParseResponse(t *testing.T) {
	r := &LLMRanker{}
	got, err := r.parseResponse("```json\n[\"x\",\"y\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)

	_, err = r.parseResponse("[broken")
	require.ErrorIs(t, err, errBadJSON)

	r.config.UseJSONMode = true
	got, err = r.parseResponse(`{"ids":["z"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, got)
}

func TestReorder(t *testing.T) {
	candidates := []domain.Article{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Equal(t, []string{"b", "a", "c"}, ids(reorder(candidates, []string{"b", "b", "a"})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(reorder(candidates, nil)))
}
