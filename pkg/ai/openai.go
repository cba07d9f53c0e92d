package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      *zap.Logger
	Observer    Observer
}

// OpenAIGenerator implements Generator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger *zap.Logger
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/swiaape-api/pkg/ai/openai"),
		logger: logger,
	}, nil
}

// GeneratePlan asks the model for a JSON study plan and decodes it.
func (g *OpenAIGenerator) GeneratePlan(parent context.Context, req PlanRequest) (PlanDraft, error) {
	content, err := g.complete(parent, "openai.generate_plan", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: planSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: buildPlanPrompt(req)},
	}, true)
	if err != nil {
		return PlanDraft{}, err
	}

	draft, err := parsePlanResponse(content)
	if err != nil {
		g.logger.Warn("openai returned an unparseable plan", zap.Error(err))
		return PlanDraft{}, err
	}
	return draft, nil
}

// Reply answers a free-form chat message.
func (g *OpenAIGenerator) Reply(parent context.Context, message string) (string, error) {
	return g.complete(parent, "openai.reply", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}, false)
}

func (g *OpenAIGenerator) complete(parent context.Context, operation string, messages []openai.ChatCompletionMessage, jsonMode bool) (content string, err error) {
	ctx, cancel := context.WithTimeout(parent, g.cfg.Timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if g.cfg.Observer != nil {
			g.cfg.Observer(operation, time.Since(start), err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages:    messages,
	}
	if jsonMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned from openai", ErrUnavailable)
	}

	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func planSystemPrompt() string {
	return "You are an academic planner for a secondary school. Respond with a JSON object with the keys " +
		"name, course, grade, objectives (array of strings), competencies (array of strings), units (array of objects " +
		"with name, duration in weeks, sessions [name, duration in minutes, activities], resources), estimated_hours, " +
		"materials, accuracy (0-100) and narrative. The narrative lists concrete recommendations, one per line, each " +
		"line starting with \"- \"."
}

func chatSystemPrompt() string {
	return "You are the SWIAAPE academic assistant. Answer teachers and administrators briefly and concretely."
}

func buildPlanPrompt(req PlanRequest) string {
	builder := strings.Builder{}
	if req.StudentName != "" {
		builder.WriteString("# Student\n")
		builder.WriteString(req.StudentName)
		builder.WriteString("\n\n## Weak competencies\n")
		for _, w := range req.Weaknesses {
			builder.WriteString(fmt.Sprintf("- %s (grade %s)\n", w.Competency, w.Grade))
		}
		builder.WriteString("\nDesign a reinforcement plan that targets these competencies.")
	}
	if req.Prompt != "" {
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString("# Request\n")
		builder.WriteString(req.Prompt)
	}
	if req.Course != "" {
		builder.WriteString("\n\n## Course\n")
		builder.WriteString(req.Course)
	}
	if req.Grade != "" {
		builder.WriteString("\n\n## Grade\n")
		builder.WriteString(req.Grade)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parsePlanResponse(content string) (PlanDraft, error) {
	var draft PlanDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return PlanDraft{}, fmt.Errorf("parse plan json: %w", err)
	}

	if draft.Accuracy < 0 {
		draft.Accuracy = 0
	}
	if draft.Accuracy > 100 {
		draft.Accuracy = 100
	}
	if draft.EstimatedHours < 0 {
		draft.EstimatedHours = 0
	}

	return draft, nil
}
