package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultChatModelName = "gemini-1.5-flash-latest"

	chatSystemInstruction = "You are MedVise, a helpful medical information assistant. " +
		"Answer the user's question clearly and concisely. When an image is attached, " +
		"describe what it shows before answering. You are not a substitute for a doctor; " +
		"recommend professional consultation where appropriate."

	// Returned when the model answers with no usable text. The relay treats
	// this as a soft degradation, not a failure.
	emptyReplyFallback = "I'm sorry, I couldn't generate a response at this time. Please try again."
)

// LLMService wraps the Gemini client and implements Upstream.
type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// GenerateReply sends the assembled parts as a single stateless call and
// returns the model's text. An empty or non-text response yields a fixed
// fallback string instead of an error.
func (s *LLMService) GenerateReply(ctx context.Context, parts []Part) (string, error) {
	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}

	resp, err := model.GenerateContent(ctx, toGenaiParts(parts)...)
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Println("Gemini response was empty or had no valid candidates/parts.")
		return emptyReplyFallback, nil
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return emptyReplyFallback, nil
	}
	return responseText.String(), nil
}

// toGenaiParts converts the relay's tagged parts into SDK parts, preserving
// order.
func toGenaiParts(parts []Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case TextPart:
			out = append(out, genai.Text(v))
		case ImagePart:
			out = append(out, genai.Blob{MIMEType: v.MIMEType, Data: v.Data})
		}
	}
	return out
}
