package core

import (
	"context"
	"strings"
	"time"

	"medvise.ai/server/internal/apperr"
	"medvise.ai/server/internal/media"
)

// Upstream is the generative model the relay forwards to.
type Upstream interface {
	GenerateReply(ctx context.Context, parts []Part) (string, error)
}

// ChatService relays a single user turn to the generative model. It holds no
// state across requests; each relay is an independent call with no
// conversation history.
type ChatService struct {
	upstream Upstream
	timeout  time.Duration
}

func NewChatService(upstream Upstream, timeout time.Duration) *ChatService {
	return &ChatService{
		upstream: upstream,
		timeout:  timeout,
	}
}

// Relay assembles the [image?, text] payload and returns the model's reply.
// At least one of text/image must be present. Upstream failures surface as a
// single generic error; no retry is attempted here.
func (s *ChatService) Relay(ctx context.Context, text string, image *media.EncodedImage) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return "", apperr.Validation("message must contain text or an image")
	}

	parts := assembleParts(text, image)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.upstream.GenerateReply(ctx, parts)
	if err != nil {
		return "", apperr.Upstream(err)
	}
	return reply, nil
}
