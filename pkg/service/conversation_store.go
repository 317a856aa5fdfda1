package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datasage-ai/datasage/pkg/models"
)

// ConversationStore keeps the bounded conversation transcript. The
// limit counts user/assistant pairs, so the store holds at most
// 2*limit messages and evicts the oldest pairs first.
type ConversationStore struct {
	mu       sync.Mutex
	messages []models.Message
	limit    int
}

func NewConversationStore(pairLimit int) *ConversationStore {
	if pairLimit <= 0 {
		pairLimit = 20
	}
	return &ConversationStore{limit: pairLimit}
}

// AppendPair adds a user message and its assistant reply as one unit,
// then evicts oldest messages down to the pair limit.
func (s *ConversationStore) AppendPair(user, assistant models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.Role = models.RoleUser

	if assistant.ID == "" {
		assistant.ID = uuid.NewString()
	}
	if assistant.CreatedAt.IsZero() {
		assistant.CreatedAt = now
	}
	assistant.Role = models.RoleAssistant

	s.messages = append(s.messages, user, assistant)
	if max := 2 * s.limit; len(s.messages) > max {
		s.messages = append(s.messages[:0:0], s.messages[len(s.messages)-max:]...)
	}
}

// History returns a copy of the transcript in chronological order.
func (s *ConversationStore) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Recent returns up to n most recent messages in chronological order.
func (s *ConversationStore) Recent(n int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if len(s.messages) > n {
		start = len(s.messages) - n
	}
	out := make([]models.Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Clear drops the whole transcript.
func (s *ConversationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Export renders the transcript as plain text for download.
func (s *ConversationStore) Export() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Chat Export - %s\n", time.Now().Format("2006-01-02 15:04:05")))
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	for _, msg := range s.messages {
		role := strings.ToUpper(msg.Role[:1]) + msg.Role[1:]
		b.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n", msg.CreatedAt.Format("2006-01-02 15:04:05"), role, msg.Content))
	}
	return b.String()
}
