package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvis/internal/llm"
	"jarvis/internal/logging"
	"jarvis/internal/search"
)

var realtimeOptions = llm.Options{MaxTokens: 2048, Temperature: 0.7, TopP: 1}

// Realtime answers questions from fresh web search results
type Realtime struct {
	provider llm.Provider
	searcher search.Searcher
	persona  Persona
	now      func() time.Time
	logger   *logging.Logger
}

// NewRealtime creates the realtime search answering handler
func NewRealtime(provider llm.Provider, searcher search.Searcher, persona Persona, logger *logging.Logger) *Realtime {
	return &Realtime{provider: provider, searcher: searcher, persona: persona, now: time.Now, logger: logger}
}

func (r *Realtime) systemPrompt(username string) string {
	return fmt.Sprintf("Hello, I am %s, You are a very accurate and advanced AI chatbot named %s, which has real-time up-to-date information from the internet.\n"+
		"*** Provide Answers In a Professional Way, make sure to add full stops, commas, question marks, and use proper grammar. ***\n"+
		"*** Just answer the question from the provided data in a professional way. ***",
		r.persona.user(username), r.persona.AssistantName)
}

// Handle searches for the full utterance and answers from the results
func (r *Realtime) Handle(ctx context.Context, req Request) (string, error) {
	logger := r.logger.WithContext("username", req.Username)
	query := req.Utterance
	if query == "" {
		query = req.Task
	}

	var block string
	results, err := r.searcher.Search(ctx, query)
	if err != nil {
		logger.Warn("search failed, answering without results: %v", err)
		block = search.FormatFailure(err)
	} else {
		block = search.FormatResults(query, results)
	}

	messages := []llm.Message{
		{Role: "system", Content: r.systemPrompt(req.Username)},
		{Role: "system", Content: block},
		{Role: "system", Content: realtimeInfo(r.now())},
		{Role: "user", Content: query},
	}

	var sb strings.Builder
	start := time.Now()
	if _, err := r.provider.Stream(ctx, messages, realtimeOptions, &sb); err != nil {
		logger.WithContext("latency_ms", time.Since(start).Milliseconds()).Error("realtime completion failed: %v", err)
		return fmt.Sprintf("❌ Error during real-time search: %v", err), nil
	}
	return removeBlankLines(sb.String()), nil
}
