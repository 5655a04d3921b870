package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/adopaw/adopaw-backend/internal/clients/groq"
	"github.com/adopaw/adopaw-backend/internal/pkg/apierr"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
)

type fakeGroq struct {
	reply       string
	replyErr    error
	label       string
	labelErr    error
	notes       []groq.ImageNote
	gotMessages []groq.Message
}

func (f *fakeGroq) ChatComplete(_ context.Context, messages []groq.Message) (string, error) {
	f.gotMessages = messages
	return f.reply, f.replyErr
}

func (f *fakeGroq) ClassifyOnTopic(_ context.Context, _ string) (string, error) {
	return f.label, f.labelErr
}

func (f *fakeGroq) DescribeImages(_ context.Context, urls []string, _ string) []groq.ImageNote {
	if f.notes != nil {
		return f.notes
	}
	out := make([]groq.ImageNote, len(urls))
	for i, u := range urls {
		out[i] = groq.ImageNote{URL: u}
	}
	return out
}

func newAssistant(g *fakeGroq, classify, vision bool) AssistantService {
	return NewAssistantService(logger.NewNop(), g, classify, vision)
}

func TestReplyRejectsEmptyRequest(t *testing.T) {
	svc := newAssistant(&fakeGroq{}, false, false)

	_, err := svc.Reply(context.Background(), ReplyInput{Message: "   "})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "empty_request" {
		t.Fatalf("expected empty_request, got %v", err)
	}
}

func TestReplyOffTopicShortCircuits(t *testing.T) {
	g := &fakeGroq{label: "OFF_TOPIC", reply: "should not be used"}
	svc := newAssistant(g, true, false)

	reply, err := svc.Reply(context.Background(), ReplyInput{Message: "write me a poem about taxes"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != offTopicReply {
		t.Fatalf("expected canned off-topic reply, got %q", reply)
	}
	if g.gotMessages != nil {
		t.Fatalf("off-topic request must not reach the chat model")
	}
}

func TestReplyClassifierFailureIsNotFatal(t *testing.T) {
	g := &fakeGroq{labelErr: fmt.Errorf("classifier down"), reply: "Dogs need daily walks."}
	svc := newAssistant(g, true, false)

	reply, err := svc.Reply(context.Background(), ReplyInput{Message: "how often should I walk my dog?"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "Dogs need daily walks." {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestReplyTrimsHistoryWindow(t *testing.T) {
	g := &fakeGroq{label: "ON_TOPIC", reply: "ok"}
	svc := newAssistant(g, true, false)

	history := make([]HistoryTurn, historyWindow+5)
	for i := range history {
		history[i] = HistoryTurn{Role: "user", Content: fmt.Sprintf("turn %d", i)}
	}

	if _, err := svc.Reply(context.Background(), ReplyInput{Message: "hi", History: history}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	// system prompt + trimmed history + user turn
	if len(g.gotMessages) != historyWindow+2 {
		t.Fatalf("sent %d turns, want %d", len(g.gotMessages), historyWindow+2)
	}
	first := g.gotMessages[1].Content.(string)
	if first != fmt.Sprintf("turn %d", 5) {
		t.Fatalf("history not trimmed to the newest window, first turn %q", first)
	}
}

func TestReplyInjectsVisualContext(t *testing.T) {
	g := &fakeGroq{
		label: "ON_TOPIC",
		reply: "That pup looks healthy!",
		notes: []groq.ImageNote{{URL: "https://img/1.jpg", Note: "a golden retriever puppy"}},
	}
	svc := newAssistant(g, true, true)

	reply, err := svc.Reply(context.Background(), ReplyInput{
		Message:   "what breed is this?",
		ImageURLs: []string{"https://img/1.jpg"},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "That pup looks healthy!" {
		t.Fatalf("unexpected reply %q", reply)
	}

	found := false
	for _, m := range g.gotMessages {
		if m.Role != "system" {
			continue
		}
		if s, ok := m.Content.(string); ok && strings.Contains(s, "VISUAL_CONTEXT") &&
			strings.Contains(s, "golden retriever") {
			found = true
		}
	}
	if !found {
		t.Fatalf("visual context not injected into the prompt")
	}
}

func TestReplyUnavailableWhenModelFails(t *testing.T) {
	g := &fakeGroq{label: "ON_TOPIC", replyErr: fmt.Errorf("all models rejected")}
	svc := newAssistant(g, true, false)

	_, err := svc.Reply(context.Background(), ReplyInput{Message: "help"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "unavailable" {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestReplyFallbackForEmptyModelOutput(t *testing.T) {
	g := &fakeGroq{label: "ON_TOPIC", reply: "   "}
	svc := newAssistant(g, true, false)

	reply, err := svc.Reply(context.Background(), ReplyInput{Message: "hello"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply == "" || strings.TrimSpace(reply) == "" {
		t.Fatalf("expected a non-empty fallback reply")
	}
}
