// Package summarization produces markdown summaries of lecture transcripts
// through an OpenAI-compatible chat completion API.
package summarization

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/config"
	"github.com/lecturenotes/backend/pkg/apperr"
)

const systemPrompt = "You are an AI assistant that summarizes lecture transcripts concisely and accurately. " +
	"Output only the summary, with no intro, no outro and no commentary. " +
	"Use lists, tables or whatever structure the material needs. Format the summary in markdown."

const userPrefix = "Summarize the following lecture transcript:\n\n"

// ChatClient is the part of the go-openai client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds a go-openai client for the configured endpoint.
func NewClient(cfg config.SummarizationConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// Summarizer turns transcripts into summaries. It holds no lecture state;
// saving the result is up to the caller.
type Summarizer struct {
	client      ChatClient
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewSummarizer creates a summarizer using cfg's model parameters.
func NewSummarizer(client ChatClient, cfg config.SummarizationConfig, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Request builds the chat completion request for transcript.
func (s *Summarizer) Request(transcript string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrefix + transcript},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
}

// Summarize asks the model for a summary of transcript. Blank input is
// rejected without calling the model. Failures are not retried.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", apperr.Validation("no transcript provided")
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, s.Request(transcript))
	if err != nil {
		s.logger.Error("summary request failed", zap.Error(err), zap.String("model", s.model))
		return "", apperr.External("failed to generate summary", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.External("failed to generate summary", errors.New("no choices in response"))
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", apperr.External("failed to generate summary", errors.New("empty completion"))
	}
	s.logger.Info("summary generated",
		zap.String("model", s.model),
		zap.Int("transcript_chars", len(transcript)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
