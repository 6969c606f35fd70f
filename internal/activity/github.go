// Package activity polls a code-hosting activity feed and flattens push
// events into individual commits for announcement.
package activity

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-github/v66/github"

	"github.com/dstanwick/perch/internal/perr"
)

// Commit is one commit inside a push event.
type Commit struct {
	SHA     string
	Message string
}

// Push is one push event, flattened to its commits. EventID is the feed's
// decimal event identifier; Repo is "owner/name".
type Push struct {
	EventID string
	Repo    string
	Commits []Commit
}

// Feed lists push events newer than a cursor.
type Feed interface {
	Pushes(ctx context.Context, sinceEventID string) ([]Push, error)
}

// CommitURL builds the display URL for a commit.
func CommitURL(host, repo, sha string) string {
	return fmt.Sprintf("https://%s/%s/commit/%s", host, repo, sha)
}

// GitHubFeed reads a user's public events from the GitHub API.
type GitHubFeed struct {
	client *github.Client
	user   string
}

// NewGitHubFeed creates a feed for the given user's public events. No
// authentication is needed for public activity.
func NewGitHubFeed(user string) *GitHubFeed {
	return &GitHubFeed{client: github.NewClient(nil), user: user}
}

// Pushes returns push events with ids strictly greater than sinceEventID,
// in ascending event id order. An empty sinceEventID returns all currently
// visible push events.
func (f *GitHubFeed) Pushes(ctx context.Context, sinceEventID string) ([]Push, error) {
	events, _, err := f.client.Activity.ListEventsPerformedByUser(ctx, f.user, true,
		&github.ListOptions{PerPage: 50})
	if err != nil {
		return nil, perr.E(perr.KindPlatformAPI, "activity.events", err)
	}

	var pushes []Push
	for _, e := range events {
		if e.GetType() != "PushEvent" {
			continue
		}
		if sinceEventID != "" && !eventAfter(e.GetID(), sinceEventID) {
			continue
		}

		payload, err := e.ParsePayload()
		if err != nil {
			continue
		}
		pe, ok := payload.(*github.PushEvent)
		if !ok {
			continue
		}

		push := Push{EventID: e.GetID(), Repo: e.GetRepo().GetName()}
		for _, c := range pe.Commits {
			push.Commits = append(push.Commits, Commit{SHA: c.GetSHA(), Message: c.GetMessage()})
		}
		pushes = append(pushes, push)
	}

	// The API returns newest first.
	sort.Slice(pushes, func(i, j int) bool { return eventAfter(pushes[j].EventID, pushes[i].EventID) })
	return pushes, nil
}

// eventAfter reports whether decimal event id a is strictly greater than b.
func eventAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
