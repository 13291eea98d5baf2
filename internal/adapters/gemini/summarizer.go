// Package gemini produces operator summaries with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const promptTemplate = "Give me a summary about the Deutsche Bahn operator %s!"

var tracer = otel.Tracer("github.com/samirrijal/stopsapi/internal/adapters/gemini")

// Summarizer implements ports.Summarizer.
type Summarizer struct {
	client *genai.Client
	model  string
}

// New creates a Summarizer authenticated with apiKey.
func New(ctx context.Context, apiKey, model string) (*Summarizer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	return newSummarizer(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newSummarizer(ctx context.Context, cfg *genai.ClientConfig, model string) (*Summarizer, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Summarizer{client: client, model: model}, nil
}

// SummarizeOperator asks the model for a short description of operator.
func (s *Summarizer) SummarizeOperator(ctx context.Context, operator string) (text string, err error) {
	ctx, span := tracer.Start(ctx, "gemini.summarize_operator")
	defer span.End()
	span.SetAttributes(attribute.String("operator", operator), attribute.String("model", s.model))

	start := time.Now()
	defer func() {
		metrics.ObserveUpstream("gemini", "summarize_operator", start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(Prompt(operator)), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrUpstream, err)
	}
	text = CleanText(resp.Text())
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: gemini: empty response", domain.ErrUpstream)
	}
	return text, nil
}

// Prompt returns the question sent for operator.
func Prompt(operator string) string {
	return fmt.Sprintf(promptTemplate, operator)
}

// CleanText strips markdown bold markers and flattens newlines.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "\n", " ")
}
