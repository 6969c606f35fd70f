// Package bot runs the mention-reconciliation loop: fetch mentions newer
// than the persisted cursor, reply to each, advance the cursor, announce
// new commits, sleep, repeat. The loop prefers availability over strict
// consistency: individual failures are logged and retried or dropped, and
// only startup errors terminate the process.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dstanwick/perch/internal/activity"
	"github.com/dstanwick/perch/internal/config"
	"github.com/dstanwick/perch/internal/perr"
	"github.com/dstanwick/perch/internal/platform"
	"github.com/dstanwick/perch/internal/store"
)

// Platform is the subset of the platform client the loop uses.
type Platform interface {
	VerifyCredentials(ctx context.Context) (platform.Identity, error)
	ListMembers(ctx context.Context, owner, slug string) ([]string, error)
	Mentions(ctx context.Context, sinceID string) ([]platform.Mention, error)
	PostReply(ctx context.Context, text, inReplyTo string) error
	PostStatus(ctx context.Context, text string) error
}

// Composer generates one reply for a mention.
type Composer interface {
	Reply(ctx context.Context, mentionText string, profiles []string) (string, error)
}

// StateStore persists cursors and the delivery audit log.
type StateStore interface {
	Cursor(ctx context.Context, name string) (string, error)
	SetCursor(ctx context.Context, name, value string) error
	RecordDelivery(ctx context.Context, d store.Delivery) error
}

// runState is the loop's mutable state: the current cursors. It is owned by
// the Bot and passed by pointer into each iteration, never shared.
type runState struct {
	mentionCursor string
	commitCursor  string
}

// Bot wires the collaborators of the reconciliation loop.
type Bot struct {
	cfg      *config.Config
	platform Platform
	composer Composer
	store    StateStore
	feed     activity.Feed
	log      *logrus.Entry

	identity platform.Identity
	state    runState
}

// New assembles a Bot. The clients must already be constructed; client
// construction failures are initialization errors handled by the caller.
func New(cfg *config.Config, p Platform, c Composer, s StateStore, f activity.Feed, log *logrus.Entry) *Bot {
	return &Bot{cfg: cfg, platform: p, composer: c, store: s, feed: f, log: log}
}

// Run resolves the bot's identity, loads the cursors, and polls until ctx
// is cancelled. Only startup errors are returned; steady-state errors are
// logged and absorbed by the next iteration.
func (b *Bot) Run(ctx context.Context) error {
	id, err := b.platform.VerifyCredentials(ctx)
	if err != nil {
		return perr.E(perr.KindInitialization, "bot.identity", err)
	}
	b.identity = id
	b.log.WithFields(logrus.Fields{"id": id.ID, "handle": id.Handle}).Info("resolved bot identity")

	// An absent cursor is valid (process everything visible); a failing
	// store is not, since the at-least-once contract depends on it.
	if b.state.mentionCursor, err = b.store.Cursor(ctx, store.CursorMentions); err != nil {
		return perr.E(perr.KindInitialization, "bot.load_cursor", err)
	}
	if b.state.commitCursor, err = b.store.Cursor(ctx, store.CursorCommits); err != nil {
		return perr.E(perr.KindInitialization, "bot.load_cursor", err)
	}
	b.log.WithField("cursor", b.state.mentionCursor).Info("starting reply loop")

	interval := time.Duration(b.cfg.PollInterval) * time.Second
	for {
		b.iterate(ctx, &b.state)

		select {
		case <-ctx.Done():
			b.log.Info("shutting down")
			return nil
		case <-time.After(interval):
		}
	}
}

// iterate runs one reconciliation pass. Every step's failure is contained:
// a fetch failure skips the dependent steps, a per-mention failure moves on
// to the next mention, and nothing propagates out.
func (b *Bot) iterate(ctx context.Context, state *runState) {
	if ctx.Err() != nil {
		return
	}

	profiles := b.fetchProfiles(ctx)

	mentions, err := b.platform.Mentions(ctx, state.mentionCursor)
	if err != nil {
		b.log.WithError(err).Error("fetching mentions failed, skipping batch")
	} else {
		b.processMentions(ctx, state, mentions, profiles)
	}

	b.announceCommits(ctx, state)
}

// fetchProfiles loads the engagement profile list. Failure only degrades
// reply quality, so the iteration continues with an empty list.
func (b *Bot) fetchProfiles(ctx context.Context) []string {
	if b.cfg.ListOwner == "" || b.cfg.ListSlug == "" {
		return nil
	}
	profiles, err := b.platform.ListMembers(ctx, b.cfg.ListOwner, b.cfg.ListSlug)
	if err != nil {
		b.log.WithError(err).Warn("fetching engagement profiles failed, continuing without them")
		return nil
	}
	return profiles
}

// processMentions handles one batch in ascending id order. The cursor
// advances only past fully handled mentions, so a failed mention is
// retried on the next iteration while later mentions still proceed.
func (b *Bot) processMentions(ctx context.Context, state *runState, mentions []platform.Mention, profiles []string) {
	for _, m := range mentions {
		if ctx.Err() != nil {
			return
		}
		mlog := b.log.WithFields(logrus.Fields{"mention": m.ID, "from": m.User})

		if m.User == b.identity.Handle {
			// Never reply to ourselves.
			b.advanceMentionCursor(ctx, state, m.ID, mlog)
			continue
		}

		text, err := b.composer.Reply(ctx, m.Text, profiles)
		if err != nil {
			mlog.WithError(err).Error("generating reply failed, will retry next iteration")
			continue
		}

		if err := b.platform.PostReply(ctx, text, m.ID); err != nil {
			mlog.WithError(err).Error("posting reply failed, will retry next iteration")
			continue
		}
		mlog.Info("replied")

		if err := b.store.RecordDelivery(ctx, store.Delivery{Kind: "reply", Ref: m.ID}); err != nil {
			mlog.WithError(err).Warn("recording delivery failed")
		}
		b.advanceMentionCursor(ctx, state, m.ID, mlog)
	}
}

// advanceMentionCursor moves the cursor past a fully handled mention. The
// durable write is the durability boundary: if it fails, the in-memory
// cursor still advances for this run and the mention may be reprocessed
// after a crash.
func (b *Bot) advanceMentionCursor(ctx context.Context, state *runState, id string, log *logrus.Entry) {
	state.mentionCursor = id
	if err := b.store.SetCursor(ctx, store.CursorMentions, id); err != nil {
		log.WithError(err).Error("persisting cursor failed, continuing with in-memory cursor")
	}
}

// announceCommits posts one status per new commit in the activity feed.
// A single post failure does not abort the remaining commits.
func (b *Bot) announceCommits(ctx context.Context, state *runState) {
	if b.cfg.GitHubUser == "" || b.feed == nil {
		return
	}

	pushes, err := b.feed.Pushes(ctx, state.commitCursor)
	if err != nil {
		b.log.WithError(err).Error("fetching activity feed failed")
		return
	}

	for _, push := range pushes {
		for _, commit := range push.Commits {
			status := fmt.Sprintf("New commit in %s: %s %s",
				push.Repo, firstLine(commit.Message),
				activity.CommitURL(b.cfg.GitHubHost, push.Repo, commit.SHA))
			if err := b.platform.PostStatus(ctx, status); err != nil {
				b.log.WithError(err).WithField("commit", commit.SHA).Error("announcing commit failed")
				continue
			}
			if err := b.store.RecordDelivery(ctx, store.Delivery{Kind: "commit", Ref: commit.SHA}); err != nil {
				b.log.WithError(err).Warn("recording delivery failed")
			}
		}

		// Announced events are not retried: a failed post is dropped, not
		// reposted alongside its siblings next iteration.
		state.commitCursor = push.EventID
		if err := b.store.SetCursor(ctx, store.CursorCommits, push.EventID); err != nil {
			b.log.WithError(err).Error("persisting commit cursor failed")
		}
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
