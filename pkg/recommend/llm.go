package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/umputun/readrec/pkg/config"
	"github.com/umputun/readrec/pkg/domain"
)

// errBadJSON marks a response which can be retried
var errBadJSON = errors.New("invalid json in llm response")

// LLMRanker orders candidates with an OpenAI-compatible chat model
type LLMRanker struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
}

// NewLLMRanker creates a new LLM ranker
func NewLLMRanker(cfg config.LLMConfig) *LLMRanker {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	systemMsg := cfg.SystemPrompt
	if systemMsg == "" {
		systemMsg = defaultSystemPrompt
	}

	return &LLMRanker{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		systemMsg: systemMsg,
	}
}

const defaultSystemPrompt = `You are an assistant picking articles a reader will enjoy most.
You get the reader's preferences and a list of candidate articles.
Order the candidates from the best to the worst match and respond with a JSON array
of article ids only, e.g. ["id-3", "id-1", "id-2"]. Use ids exactly as given.`

// Rank asks the model for the candidate order. Ids the model skipped keep their
// relative order after the ranked ones, unknown ids are ignored.
func (r *LLMRanker) Rank(ctx context.Context, prefs domain.Preferences, topic string, candidates []domain.Article) ([]domain.Article, error) {
	if len(candidates) == 0 {
		return []domain.Article{}, nil
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	prompt := r.buildPrompt(prefs, topic, candidates)

	// retry up to 3 times if we get invalid JSON
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		chatReq := openai.ChatCompletionRequest{
			Model:       r.config.Model,
			Temperature: float32(r.config.Temperature),
			MaxTokens:   r.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: r.systemMsg},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}
		if r.config.UseJSONMode {
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := r.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from llm")
		}

		ids, err := r.parseResponse(resp.Choices[0].Message.Content)
		if err == nil {
			return reorder(candidates, ids), nil
		}
		lastErr = err
		if !errors.Is(err, errBadJSON) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

func (r *LLMRanker) buildPrompt(prefs domain.Preferences, topic string, candidates []domain.Article) string {
	var sb strings.Builder
	sb.WriteString("Reader preferences:\n")
	sb.WriteString(fmt.Sprintf("- category: %s\n", prefs.PreferredCategory))
	sb.WriteString(fmt.Sprintf("- tone: %s\n", prefs.PreferredTone))
	sb.WriteString(fmt.Sprintf("- length: %s\n", prefs.PreferredLength))
	sb.WriteString(fmt.Sprintf("- likes trending topics: %t\n", prefs.WantsTrending))
	if topic != "" {
		sb.WriteString(fmt.Sprintf("- currently browsing topic: %s\n", topic))
	}

	sb.WriteString("\nCandidate articles:\n\n")
	for i, a := range candidates {
		sb.WriteString(fmt.Sprintf("%d. ID: %s\n", i+1, a.ID))
		sb.WriteString(fmt.Sprintf("   Title: %s\n", a.Title))
		sb.WriteString(fmt.Sprintf("   Category: %s\n", a.Category))
		if a.Summary != "" {
			summary := a.Summary
			if len(summary) > 300 {
				summary = summary[:300] + "..."
			}
			sb.WriteString(fmt.Sprintf("   Summary: %s\n", summary))
		}
		sb.WriteString("\n")
	}

	if r.config.UseJSONMode {
		sb.WriteString("Respond with a JSON object containing an 'ids' array.")
	} else {
		sb.WriteString("Respond with a JSON array of ids.")
	}
	return sb.String()
}

func (r *LLMRanker) parseResponse(content string) ([]string, error) {
	if r.config.UseJSONMode {
		var resp struct {
			IDs []string `json:"ids"`
		}
		if err := json.Unmarshal([]byte(content), &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadJSON, err)
		}
		return resp.IDs, nil
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("%w: no json array found", errBadJSON)
	}
	var ids []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return ids, nil
}

// reorder puts candidates listed in ids first, in ids order, followed by the rest
func reorder(candidates []domain.Article, ids []string) []domain.Article {
	byID := make(map[string]int, len(candidates))
	for i, a := range candidates {
		byID[a.ID] = i
	}
	used := make([]bool, len(candidates))
	res := make([]domain.Article, 0, len(candidates))
	for _, id := range ids {
		if i, ok := byID[id]; ok && !used[i] {
			used[i] = true
			res = append(res, candidates[i])
		}
	}
	for i, a := range candidates {
		if !used[i] {
			res = append(res, a)
		}
	}
	return res
}
