// Package reply turns a mention into a posted-ready reply via a completion
// provider.
package reply

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dstanwick/perch/internal/llm"
	"github.com/dstanwick/perch/internal/perr"
)

// maxPostRunes is the platform's status length limit.
const maxPostRunes = 280

// leadingMentionsRE matches the run of @handle tokens that starts a reply,
// so the completion is not conditioned on addressing boilerplate.
var leadingMentionsRE = regexp.MustCompile(`^(?:\s*@\w+)+\s*`)

// StripLeadingMentions removes the leading run of @handle tokens from text.
// Mentions appearing later in the text are left alone.
func StripLeadingMentions(text string) string {
	return leadingMentionsRE.ReplaceAllString(text, "")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Composer builds completion requests for mentions and returns reply text.
type Composer struct {
	provider llm.Provider
	model    string
	persona  string
}

// NewComposer creates a Composer using the given provider and persona.
func NewComposer(provider llm.Provider, model, persona string) *Composer {
	return &Composer{provider: provider, model: model, persona: persona}
}

// Reply generates one reply for the mention text. The engagement profile
// handles, when present, enrich the system instruction; an empty list only
// degrades reply quality.
func (c *Composer) Reply(ctx context.Context, mentionText string, profiles []string) (string, error) {
	clean := StripLeadingMentions(mentionText)

	system := c.persona
	if len(profiles) > 0 {
		system += fmt.Sprintf("\nAccounts you follow and engage with: %s.", strings.Join(profiles, ", "))
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: clean},
		},
		MaxTokens:   120,
		Temperature: 0.9,
	})
	if err != nil {
		return "", perr.E(perr.KindCompletionAPI, "reply.compose", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", perr.Errorf(perr.KindCompletionAPI, "reply.compose", "completion returned empty text")
	}
	return Truncate(text, maxPostRunes), nil
}
