package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/datasage-ai/datasage/pkg/models"
)

func TestConversationStore_AppendPair(t *testing.T) {
	store := NewConversationStore(20)
	store.AppendPair(
		models.Message{Content: "hello"},
		models.Message{Content: "hi there"},
	)

	history := store.History()
	if len(history) != 2 {
		t.Fatalf("History() len = %d, want 2", len(history))
	}
	if history[0].Role != models.RoleUser || history[0].Content != "hello" {
		t.Errorf("first message = %+v, want user hello", history[0])
	}
	if history[1].Role != models.RoleAssistant || history[1].Content != "hi there" {
		t.Errorf("second message = %+v, want assistant reply", history[1])
	}
	if history[0].ID == "" || history[1].ID == "" {
		t.Error("messages should get IDs assigned")
	}
}

func TestConversationStore_EvictsOldestPairs(t *testing.T) {
	limit := 3
	store := NewConversationStore(limit)
	for i := 0; i < 10; i++ {
		store.AppendPair(
			models.Message{Content: fmt.Sprintf("question %d", i)},
			models.Message{Content: fmt.Sprintf("answer %d", i)},
		)
	}

	history := store.History()
	if len(history) != 2*limit {
		t.Fatalf("History() len = %d, want %d", len(history), 2*limit)
	}
	// Oldest surviving pair is question 7.
	if history[0].Content != "question 7" {
		t.Errorf("oldest message = %q, want question 7", history[0].Content)
	}
	if history[len(history)-1].Content != "answer 9" {
		t.Errorf("newest message = %q, want answer 9", history[len(history)-1].Content)
	}
	// Pairs are never split by eviction.
	for i, msg := range history {
		wantRole := models.RoleUser
		if i%2 == 1 {
			wantRole = models.RoleAssistant
		}
		if msg.Role != wantRole {
			t.Errorf("message %d role = %s, want %s", i, msg.Role, wantRole)
		}
	}
}

func TestConversationStore_Recent(t *testing.T) {
	store := NewConversationStore(20)
	for i := 0; i < 8; i++ {
		store.AppendPair(
			models.Message{Content: fmt.Sprintf("q%d", i)},
			models.Message{Content: fmt.Sprintf("a%d", i)},
		)
	}

	recent := store.Recent(4)
	if len(recent) != 4 {
		t.Fatalf("Recent(4) len = %d", len(recent))
	}
	if recent[0].Content != "q6" || recent[3].Content != "a7" {
		t.Errorf("Recent(4) = %q .. %q, want q6 .. a7", recent[0].Content, recent[3].Content)
	}

	if got := store.Recent(100); len(got) != 16 {
		t.Errorf("Recent(100) len = %d, want all 16", len(got))
	}
}

func TestConversationStore_Clear(t *testing.T) {
	store := NewConversationStore(20)
	store.AppendPair(models.Message{Content: "q"}, models.Message{Content: "a"})
	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", store.Len())
	}
}

func TestConversationStore_Export(t *testing.T) {
	store := NewConversationStore(20)
	store.AppendPair(
		models.Message{Content: "what is in stock?"},
		models.Message{Content: "12 lamps"},
	)

	export := store.Export()
	if !strings.HasPrefix(export, "Chat Export - ") {
		t.Errorf("export missing header: %q", export[:30])
	}
	if !strings.Contains(export, "User:\nwhat is in stock?") {
		t.Error("export missing user block")
	}
	if !strings.Contains(export, "Assistant:\n12 lamps") {
		t.Error("export missing assistant block")
	}
}

func TestConversationStore_HistoryIsCopy(t *testing.T) {
	store := NewConversationStore(20)
	store.AppendPair(models.Message{Content: "q"}, models.Message{Content: "a"})

	history := store.History()
	history[0].Content = "mutated"
	if store.History()[0].Content != "q" {
		t.Error("History() should return a copy")
	}
}
