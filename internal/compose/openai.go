package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"dialogue-platform/internal/dialog"
)

// ChatClient captures the subset of the go-openai client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (
		openai.ChatCompletionResponse, error)
}

// OpenAIGenerator implements TextGenerator via the OpenAI Chat Completions
// API. Quality assessment stays a local heuristic: one network call per
// generation attempt, not two.
type OpenAIGenerator struct {
	chat  ChatClient
	model string
}

// NewOpenAIGenerator builds an adapter around an existing chat client.
func NewOpenAIGenerator(chat ChatClient, model string) (*OpenAIGenerator, error) {
	if chat == nil {
		return nil, errors.New("compose: chat client is required")
	}
	if model == "" {
		return nil, errors.New("compose: model is required")
	}
	return &OpenAIGenerator{chat: chat, model: model}, nil
}

// NewOpenAIGeneratorFromAPIKey constructs the adapter with the default
// go-openai HTTP client.
func NewOpenAIGeneratorFromAPIKey(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("compose: api key is required")
	}
	return NewOpenAIGenerator(openai.NewClient(apiKey), model)
}

const systemPrompt = "You are a receptionist collecting appointment details. " +
	"Reply with exactly one short, friendly question and nothing else."

// Generate renders one chat completion for the request.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		MaxTokens:   120,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("compose: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("compose: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AssessQuality scores generated text with a cheap deterministic heuristic.
func (g *OpenAIGenerator) AssessQuality(_ context.Context, text string, req Request) (float64, error) {
	quality := 0.5
	if len(text) > 10 {
		quality += 0.1
	}
	if strings.Contains(text, "?") {
		quality += 0.2
	}
	if strings.Contains(strings.ToLower(text), "please") {
		quality += 0.1
	}
	lower := strings.ToLower(text)
	for _, slot := range req.TargetSlots {
		if strings.Contains(lower, slotNoun(slot)) {
			quality += 0.05
		}
	}
	if quality > 1 {
		quality = 1
	}
	return quality, nil
}

// Available reports whether the adapter can serve calls.
func (g *OpenAIGenerator) Available() bool {
	return g.chat != nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	if len(req.TargetSlots) == 0 {
		b.WriteString("All details are collected. Write a short closing confirmation message.\n")
	} else {
		b.WriteString("Ask the caller for: ")
		for i, slot := range req.TargetSlots {
			if i > 0 {
				b.WriteString(" and ")
			}
			b.WriteString(slotNoun(slot))
		}
		b.WriteString(".\n")
	}
	if len(req.Known) > 0 {
		b.WriteString("Already known:\n")
		for slot, value := range req.Known {
			fmt.Fprintf(&b, "- %s: %s\n", slotNoun(slot), value)
		}
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "The caller just said: %q\n", req.Context)
	}
	return b.String()
}

func slotNoun(slot dialog.Slot) string {
	switch slot {
	case dialog.SlotCallerName:
		return "name"
	case dialog.SlotPhoneNumber:
		return "phone number"
	case dialog.SlotDayPreference:
		return "preferred day"
	case dialog.SlotTimePreference:
		return "preferred time"
	case dialog.SlotServiceType:
		return "service"
	default:
		return strings.ReplaceAll(string(slot), "_", " ")
	}
}
