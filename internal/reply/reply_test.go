package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dstanwick/perch/internal/llm"
	"github.com/dstanwick/perch/internal/perr"
)

func TestStripLeadingMentions(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"@bot @alice hello there", "hello there"},
		{"no mentions here", "no mentions here"},
		{"@bot what's up?", "what's up?"},
		{"@a @b_c @d3 ok", "ok"},
		{"hello @bot in the middle", "hello @bot in the middle"},
		{"@bot", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripLeadingMentions(tt.in); got != tt.want {
			t.Errorf("StripLeadingMentions(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 3); got != "hél" {
		t.Errorf("Truncate rune-aware: got %q, want %q", got, "hél")
	}
	if got := Truncate("short", 280); got != "short" {
		t.Errorf("Truncate short: got %q, want %q", got, "short")
	}
}

// fakeProvider records the last request and returns canned output.
type fakeProvider struct {
	lastReq llm.CompletionRequest
	content string
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func TestComposerReply(t *testing.T) {
	p := &fakeProvider{content: "  nice one!  "}
	c := NewComposer(p, "gpt-4o-mini", "You are a bot.")

	got, err := c.Reply(context.Background(), "@bot @alice hello there", []string{"gopher", "rob"})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "nice one!" {
		t.Errorf("reply text: got %q, want %q", got, "nice one!")
	}

	if len(p.lastReq.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(p.lastReq.Messages))
	}
	if p.lastReq.Messages[1].Content != "hello there" {
		t.Errorf("user message: got %q, want cleaned text %q", p.lastReq.Messages[1].Content, "hello there")
	}
	if !strings.Contains(p.lastReq.Messages[0].Content, "gopher, rob") {
		t.Errorf("system message missing profiles: %q", p.lastReq.Messages[0].Content)
	}
}

func TestComposerReplyEmptyProfiles(t *testing.T) {
	p := &fakeProvider{content: "ok"}
	c := NewComposer(p, "gpt-4o-mini", "You are a bot.")

	if _, err := c.Reply(context.Background(), "hi", nil); err != nil {
		t.Fatalf("Reply with empty profiles: %v", err)
	}
	if strings.Contains(p.lastReq.Messages[0].Content, "engage with") {
		t.Errorf("system message should not mention profiles when list is empty: %q", p.lastReq.Messages[0].Content)
	}
}

func TestComposerReplyProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("api down")}
	c := NewComposer(p, "gpt-4o-mini", "persona")

	_, err := c.Reply(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if perr.KindOf(err) != perr.KindCompletionAPI {
		t.Errorf("error kind: got %v, want KindCompletionAPI", perr.KindOf(err))
	}
}

func TestComposerReplyTruncates(t *testing.T) {
	p := &fakeProvider{content: strings.Repeat("a", 400)}
	c := NewComposer(p, "gpt-4o-mini", "persona")

	got, err := c.Reply(context.Background(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(got)) != 280 {
		t.Errorf("reply length: got %d runes, want 280", len([]rune(got)))
	}
}
