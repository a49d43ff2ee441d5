package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"dialogue-platform/internal/dialog"
)

type fakeChat struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	chat := &fakeChat{content: "  Could you share your name and phone number, please?  "}
	g, err := NewOpenAIGenerator(chat, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	text, err := g.Generate(context.Background(), Request{
		TargetSlots: []dialog.Slot{dialog.SlotCallerName, dialog.SlotPhoneNumber},
		Known:       map[dialog.Slot]string{dialog.SlotServiceType: "haircut"},
		Context:     "I need a haircut",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.HasPrefix(text, " ") || strings.HasSuffix(text, " ") {
		t.Fatalf("expected trimmed text, got %q", text)
	}

	if chat.lastReq.Model != "gpt-4o-mini" {
		t.Fatalf("model: %s", chat.lastReq.Model)
	}
	prompt := chat.lastReq.Messages[1].Content
	if !strings.Contains(prompt, "name") || !strings.Contains(prompt, "phone number") {
		t.Fatalf("prompt should name the target slots: %q", prompt)
	}
	if !strings.Contains(prompt, "haircut") {
		t.Fatalf("prompt should carry known slots: %q", prompt)
	}
}

func TestOpenAIGeneratorError(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	g, _ := NewOpenAIGenerator(chat, "gpt-4o-mini")

	if _, err := g.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAIGeneratorQualityHeuristic(t *testing.T) {
	g, _ := NewOpenAIGenerator(&fakeChat{}, "gpt-4o-mini")
	req := Request{TargetSlots: []dialog.Slot{dialog.SlotCallerName}}

	good, _ := g.AssessQuality(context.Background(), "Could you please tell me your name?", req)
	bad, _ := g.AssessQuality(context.Background(), "ok", req)
	if good <= bad {
		t.Fatalf("expected polite question to outscore %f >= %f", good, bad)
	}
	if good > 1 {
		t.Fatalf("quality must stay in [0,1], got %f", good)
	}
}

func TestNewOpenAIGeneratorValidation(t *testing.T) {
	if _, err := NewOpenAIGenerator(nil, "m"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewOpenAIGenerator(&fakeChat{}, ""); err == nil {
		t.Fatal("expected error for empty model")
	}
	if _, err := NewOpenAIGeneratorFromAPIKey("", "m"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
