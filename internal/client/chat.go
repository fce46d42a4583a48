package client

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Relay abstracts the authenticated chat call so the controller can be
// exercised without a server.
type Relay interface {
	Chat(ctx context.Context, message, imagePath string) (string, error)
}

// Notifier surfaces user-visible alerts, e.g. a connectivity failure.
type Notifier interface {
	Notify(title, message string)
}

// Message is one entry in the visible chat log.
type Message struct {
	ID        string
	Text      string
	ImagePath string
	FromUser  bool
}

// ChatController maintains the ordered, newest-first message log. A sent
// message is inserted optimistically before the relay call completes; the
// log is never edited or truncated within a session. Failed relays leave the
// user's message in place and raise a notification instead.
type ChatController struct {
	relay    Relay
	notifier Notifier

	mu       sync.Mutex
	messages []Message
	inflight sync.WaitGroup
}

func NewChatController(relay Relay, notifier Notifier) *ChatController {
	return &ChatController{relay: relay, notifier: notifier}
}

// Send submits one composed turn. Blank input (no text, no image) is a no-op.
// The user's message appears in the log immediately; the assistant's reply is
// appended asynchronously when the relay completes. Interleaved completions
// from concurrent sends are tolerated; each reply is matched to its own
// request by closure, not by sequence number.
func (c *ChatController) Send(ctx context.Context, text, imagePath string) {
	text = strings.TrimSpace(text)
	if text == "" && imagePath == "" {
		return
	}

	c.prepend(Message{
		ID:        uuid.NewString(),
		Text:      text,
		ImagePath: imagePath,
		FromUser:  true,
	})

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		reply, err := c.relay.Chat(ctx, text, imagePath)
		if err != nil {
			if c.notifier != nil {
				c.notifier.Notify("Error", "Could not connect to MedVise AI.")
			}
			return
		}
		c.prepend(Message{ID: uuid.NewString(), Text: reply, FromUser: false})
	}()
}

// Messages returns a copy of the log, newest first.
func (c *ChatController) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Wait blocks until all in-flight sends have completed.
func (c *ChatController) Wait() {
	c.inflight.Wait()
}

func (c *ChatController) prepend(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]Message{m}, c.messages...)
}
