package generation

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	MaxTokens   int
	Temperature float64
}

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	visionModel string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIGenerator(cfg OpenAIConfig, logger *zap.Logger) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger.Named("generation"),
	}
}

// Ping checks that the backend is reachable and the credential is accepted.
func (g *OpenAIGenerator) Ping(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return &BackendError{Op: "list models", Err: err}
	}
	return nil
}

func (g *OpenAIGenerator) VisionAvailable() bool {
	return g.visionModel != ""
}

func (g *OpenAIGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.complete(ctx, "text completion", g.model, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

// GenerateVision expects JPEG bytes.
func (g *OpenAIGenerator) GenerateVision(ctx context.Context, prompt string, image []byte) (string, error) {
	if !g.VisionAvailable() {
		return "", ErrVisionUnavailable
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	return g.complete(ctx, "vision completion", g.visionModel, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	})
}

func (g *OpenAIGenerator) complete(ctx context.Context, op, model string, msg openai.ChatCompletionMessage) (string, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       model,
			Messages:    []openai.ChatCompletionMessage{msg},
			MaxTokens:   g.maxTokens,
			Temperature: float32(g.temperature),
		},
	)
	if err != nil {
		g.logger.Error("Failed to get completion", zap.String("op", op), zap.String("model", model), zap.Error(err))
		return "", &BackendError{Op: op, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("Completion received",
		zap.String("op", op),
		zap.String("model", model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return text, nil
}
