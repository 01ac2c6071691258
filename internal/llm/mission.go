// Package llm generates missions with a hosted language model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fireteam/internal/game/mission"
)

// ErrNoText is returned when the model response carries no text block.
var ErrNoText = errors.New("llm: response contained no text")

const systemPrompt = `You are the mission briefing officer for a tactical shooter.
Reply with a single JSON object and nothing else, using exactly these keys:
"title" (string), "objective" (string), "reward" (positive integer), "targetNPC" (string).`

// Config holds the settings for a MissionGenerator.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// MissionGenerator implements mission.Provider on top of the Messages API.
type MissionGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

// NewMissionGenerator creates a generator.
//
// Precondition: cfg.APIKey and cfg.Model must be non-empty; cfg.MaxTokens > 0; logger must be non-nil.
func NewMissionGenerator(cfg Config, logger *zap.Logger) (*MissionGenerator, error) {
	if logger == nil {
		panic("llm.NewMissionGenerator: logger must not be nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key must not be empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model must not be empty")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("llm: max tokens must be > 0, got %d", cfg.MaxTokens)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &MissionGenerator{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// Generate asks the model for a mission suited to req. The id is assigned locally.
//
// Postcondition: on success the returned Mission satisfies Validate().
func (g *MissionGenerator) Generate(ctx context.Context, req mission.Request) (mission.Mission, error) {
	if err := req.Validate(); err != nil {
		return mission.Mission{}, err
	}
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(req))),
		},
	})
	if err != nil {
		return mission.Mission{}, fmt.Errorf("llm: generating mission: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return mission.Mission{}, ErrNoText
	}
	m, err := ParseMission(text.String())
	if err != nil {
		return mission.Mission{}, err
	}
	m.ID = uuid.NewString()
	if err := m.Validate(); err != nil {
		return mission.Mission{}, fmt.Errorf("llm: model returned invalid mission: %w", err)
	}
	g.logger.Debug("mission generated",
		zap.String("model", g.model),
		zap.String("title", m.Title),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return m, nil
}

// Prompt renders the user prompt for req.
func Prompt(req mission.Request) string {
	return fmt.Sprintf(
		"Generate a mission for a level %d operator positioned at (%.0f, %.0f). Scale the reward with the level.",
		req.PlayerLevel, req.Coordinates.X, req.Coordinates.Y,
	)
}

// ParseMission decodes the first JSON object found in text. Models sometimes wrap
// the object in prose or a code fence, so anything outside the outermost braces
// is ignored.
func ParseMission(text string) (mission.Mission, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return mission.Mission{}, fmt.Errorf("llm: no JSON object in response %q", text)
	}
	var m mission.Mission
	if err := json.Unmarshal([]byte(text[start:end+1]), &m); err != nil {
		return mission.Mission{}, fmt.Errorf("llm: decoding mission: %w", err)
	}
	return m, nil
}
