package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
)

const defaultRequestTimeout = 60 * time.Second

// Service implements domain.CodeGenerator on top of a chat model. Service
// failures never surface as errors: each operation degrades to a
// failure-shaped value so handlers always have something to return.
type Service struct {
	model   chatModel
	timeout time.Duration
}

func NewService(model chatModel) *Service {
	return &Service{model: model, timeout: defaultRequestTimeout}
}

// complete sends the prompt (optionally with a system message) and returns
// the raw assistant text.
func (s *Service) complete(ctx context.Context, operation, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.AIRequestDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	var messages []*schema.Message
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	messages = append(messages, schema.UserMessage(prompt))

	reply, err := s.model.Generate(ctx, messages)
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(operation, "error").Inc()
		slog.Error("AI request failed", "operation", operation, "error", err)
		return "", err
	}

	metrics.AIRequestsTotal.WithLabelValues(operation, "success").Inc()
	return reply.Content, nil
}

// GenerateProject builds a whole project from a natural-language description.
// Any failure yields an empty file set with the reason in SetupInstructions.
func (s *Service) GenerateProject(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	raw, err := s.complete(ctx, "generate_project", generateProjectSystemPrompt, generateProjectPrompt(req))
	if err != nil {
		return generationFailure(err.Error())
	}

	extracted := ExtractJSONObject(raw)
	if extracted == "" {
		return generationFailure("no JSON object in model reply")
	}

	var result domain.GenerationResult
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return generationFailure("invalid JSON in model reply")
	}
	if result.Files == nil {
		result.Files = map[string]string{}
	}
	return result
}

func generationFailure(reason string) domain.GenerationResult {
	return domain.GenerationResult{
		Files:             map[string]string{},
		Description:       "Error occurred",
		SetupInstructions: "Generation failed: " + reason,
	}
}

// GenerateCode produces a single code snippet for a free-form prompt.
func (s *Service) GenerateCode(ctx context.Context, prompt string) domain.CodeResponse {
	return s.codeCompletion(ctx, "generate_code", generateCodePrompt(prompt))
}

// SuggestImprovements reviews a snippet and returns actionable suggestions.
func (s *Service) SuggestImprovements(ctx context.Context, code string) domain.CodeResponse {
	return s.codeCompletion(ctx, "suggest_improvements", suggestImprovementsPrompt(code))
}

// FixCode asks the model to repair a snippet given an error message. On
// failure the original code is echoed back so the client never loses it.
func (s *Service) FixCode(ctx context.Context, code, errorText string) domain.CodeResponse {
	resp := s.codeCompletion(ctx, "fix_code", fixCodePrompt(code, errorText))
	if !resp.Success && resp.Code == "" {
		resp.Code = code
	}
	return resp
}

func (s *Service) codeCompletion(ctx context.Context, operation, prompt string) domain.CodeResponse {
	raw, err := s.complete(ctx, operation, "", prompt)
	if err != nil {
		return domain.CodeResponse{Success: false, Error: err.Error()}
	}

	extracted := ExtractJSONObject(raw)
	if extracted == "" {
		return domain.CodeResponse{Success: false, Error: "Failed to parse model output"}
	}

	var resp domain.CodeResponse
	if err := json.Unmarshal([]byte(extracted), &resp); err != nil {
		return domain.CodeResponse{Success: false, Error: "Failed to parse model output"}
	}
	return resp
}
