package axon

import (
	"sync"
	"testing"
)

func TestNewSession(t *testing.T) {
	session := NewSession()

	if session == nil {
		t.Fatal("NewSession returned nil")
	}
	if session.ID() == "" {
		t.Error("Session ID should not be empty")
	}
	if session.Len() != 0 {
		t.Errorf("New session should have 0 messages, got %d", session.Len())
	}
	if NewSession().ID() == session.ID() {
		t.Error("Different sessions should have different IDs")
	}
}

func TestSession_Append(t *testing.T) {
	session := NewSession()
	session.Append(RoleUser, "hello")
	session.AppendMessage(Message{Role: RoleAssistant, Content: map[string]any{"a": 1}})

	if session.Len() != 2 {
		t.Fatalf("Expected 2, got %d", session.Len())
	}
	msg, err := session.At(0)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}
	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestSession_At(t *testing.T) {
	t.Run("valid index", func(t *testing.T) {
		session := NewSession()
		session.Append(RoleUser, "first")
		session.Append(RoleAssistant, "second")

		msg, err := session.At(1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if msg.Content != "second" {
			t.Errorf("Expected 'second', got %v", msg.Content)
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		session := NewSession()
		if _, err := session.At(0); err == nil {
			t.Error("Expected error for empty session")
		}
		if _, err := session.At(-1); err == nil {
			t.Error("Expected error for negative index")
		}
	})
}

func TestSession_Messages(t *testing.T) {
	session := NewSession()
	session.Append(RoleUser, "original")

	msgs := session.Messages()
	msgs[0].Content = "modified"

	msg, _ := session.At(0)
	if msg.Content != "original" {
		t.Error("Messages should return a copy")
	}
}

func TestSession_SetMessages(t *testing.T) {
	session := NewSession()
	input := []Message{NewMessage(RoleSystem, "rules"), NewMessage(RoleUser, "hi")}
	session.SetMessages(input)

	input[0].Content = "changed"
	if msg, _ := session.At(0); msg.Content != "rules" {
		t.Error("SetMessages should copy its input")
	}
	if session.Len() != 2 {
		t.Errorf("Expected 2, got %d", session.Len())
	}
}

func TestSession_Prune(t *testing.T) {
	t.Run("removes last exchanges", func(t *testing.T) {
		session := NewSession()
		for _, text := range []string{"q1", "a1", "q2", "a2"} {
			session.Append(RoleUser, text)
		}
		if err := session.Prune(1); err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if session.Len() != 2 {
			t.Errorf("Expected 2, got %d", session.Len())
		}
	})

	t.Run("more than exist", func(t *testing.T) {
		session := NewSession()
		session.Append(RoleUser, "q1")
		if err := session.Prune(5); err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if session.Len() != 0 {
			t.Errorf("Expected empty session, got %d", session.Len())
		}
	})

	t.Run("negative", func(t *testing.T) {
		if err := NewSession().Prune(-1); err == nil {
			t.Error("Expected error for negative count")
		}
	})
}

func TestSession_Clear(t *testing.T) {
	session := NewSession()
	session.Append(RoleUser, "hello")
	id := session.ID()
	session.Clear()

	if session.Len() != 0 {
		t.Errorf("Expected 0 after Clear, got %d", session.Len())
	}
	if session.ID() != id {
		t.Error("Clear should keep the session ID")
	}
}

func TestSession_LastUsage(t *testing.T) {
	session := NewSession()
	if session.LastUsage() != nil {
		t.Error("Expected nil usage before any call")
	}

	session.SetUsage(&TokenUsage{Prompt: 10, Completion: 5, Total: 15})
	usage := session.LastUsage()
	if usage == nil || usage.Total != 15 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	usage.Total = 99
	if session.LastUsage().Total != 15 {
		t.Error("LastUsage should return a copy")
	}

	session.SetUsage(nil)
	if session.LastUsage() == nil {
		t.Error("SetUsage(nil) should keep the previous usage")
	}
}

func TestSession_ForkCommit(t *testing.T) {
	t.Run("fork is independent", func(t *testing.T) {
		session := NewSession()
		session.Append(RoleUser, "a")

		fork := session.fork()
		fork.Append(RoleAssistant, "b")

		if session.Len() != 1 {
			t.Errorf("fork writes should not reach the parent, got %d", session.Len())
		}
		if fork.ID() != session.ID() {
			t.Error("fork should share the session ID")
		}
	})

	t.Run("commit copies modified fork", func(t *testing.T) {
		session := NewSession()
		fork := session.fork()
		fork.Append(RoleAssistant, "b")
		session.commit(fork)

		if session.Len() != 1 {
			t.Errorf("expected committed message, got %d", session.Len())
		}
	})

	t.Run("commit skips untouched fork", func(t *testing.T) {
		session := NewSession()
		fork := session.fork()
		session.Append(RoleUser, "written meanwhile")
		session.commit(fork)

		if session.Len() != 1 {
			t.Errorf("untouched fork should not overwrite the parent, got %d", session.Len())
		}
	})

	t.Run("appends land after parent writes", func(t *testing.T) {
		session := NewSession()
		fork := session.fork()
		fork.Append(RoleAssistant, "from fork")
		session.Append(RoleUser, "from parent")

		if !session.commit(fork) {
			t.Fatal("append-only fork should always commit")
		}
		msgs := session.Messages()
		if len(msgs) != 2 || msgs[0].Content != "from parent" || msgs[1].Content != "from fork" {
			t.Errorf("unexpected history %+v", msgs)
		}
	})

	t.Run("rewrite conflicts with moved parent", func(t *testing.T) {
		session := NewSession()
		session.Append(RoleUser, "a")
		fork := session.fork()
		fork.Clear()
		session.Append(RoleUser, "b")

		if session.commit(fork) {
			t.Fatal("expected commit to report a conflict")
		}
		if session.Len() != 2 {
			t.Errorf("conflicting commit should leave the parent alone, got %d", session.Len())
		}
	})

	t.Run("rewrite commits on unchanged parent", func(t *testing.T) {
		session := NewSession()
		session.Append(RoleUser, "a")
		fork := session.fork()
		fork.Clear()

		if !session.commit(fork) || session.Len() != 0 {
			t.Errorf("expected the cleared history, got %d messages", session.Len())
		}
	})

	t.Run("usage is copied back", func(t *testing.T) {
		session := NewSession()
		fork := session.fork()
		fork.SetUsage(&TokenUsage{Total: 7})
		session.commit(fork)

		if usage := session.LastUsage(); usage == nil || usage.Total != 7 {
			t.Errorf("expected usage total 7, got %+v", usage)
		}
	})
}

func TestSession_AppendExchange(t *testing.T) {
	session := NewSession()
	session.appendExchange(NewMessage(RoleUser, "q"), NewMessage(RoleAssistant, "a"), &TokenUsage{Total: 3})

	msgs := session.Messages()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Errorf("unexpected history %+v", msgs)
	}
	if usage := session.LastUsage(); usage == nil || usage.Total != 3 {
		t.Errorf("expected usage total 3, got %+v", usage)
	}
}

func TestSession_Concurrent(t *testing.T) {
	session := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Append(RoleUser, "msg")
			_ = session.Messages()
			_ = session.Len()
		}()
	}
	wg.Wait()

	if session.Len() != 20 {
		t.Errorf("Expected 20 messages, got %d", session.Len())
	}
}
