package ingest

import (
	"strings"
	"time"
)

// TimestampLayout is the wire format of cached GitHub timestamps.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Category classifies a contribution event.
type Category string

const (
	// CategoryCode counts merged pull requests.
	CategoryCode Category = "code"
	// CategoryCommunity counts posts and comments on issues and discussions.
	CategoryCommunity Category = "community"
	// CategoryReview counts non-self comments and reviews on pull requests.
	CategoryReview Category = "review"
)

// Event is one qualifying (author, timestamp, category) contribution.
type Event struct {
	Author   string
	Time     time.Time
	Category Category
}

const botSuffix = "[bot]"

// DefaultBots is the known automation account set excluded from every
// aggregate. Logins ending in "[bot]" are excluded regardless of this list.
var DefaultBots = []string{
	"dependabot[bot]",
	"github-actions[bot]",
	"github-actions",
	"renovate[bot]",
	"codecov[bot]",
	"codecov",
	"pre-commit-ci[bot]",
	"mergify[bot]",
	"stale",
	"awf-autoware-bot",
}

// Normalizer turns raw cache records into contribution events, applying bot
// exclusion and the start-date floor uniformly.
type Normalizer struct {
	start time.Time
	bots  map[string]struct{}
}

// NewNormalizer creates a normalizer. Events before start are dropped.
func NewNormalizer(start time.Time, bots []string) *Normalizer {
	botSet := make(map[string]struct{}, len(bots))
	for _, bot := range bots {
		botSet[bot] = struct{}{}
	}
	return &Normalizer{start: start, bots: botSet}
}

// IsBot reports whether a login is a known or marker-suffixed bot account.
func (n *Normalizer) IsBot(login string) bool {
	if _, known := n.bots[login]; known {
		return true
	}
	return strings.HasSuffix(login, botSuffix)
}

// qualify validates one candidate (author, timestamp) pair. A missing login,
// bot login, unparseable timestamp, or timestamp before the floor disqualifies
// the pair; the record itself is never rejected wholesale.
func (n *Normalizer) qualify(author *Actor, timestamp string) (string, time.Time, bool) {
	if author == nil || author.Login == "" || timestamp == "" {
		return "", time.Time{}, false
	}
	if n.IsBot(author.Login) {
		return "", time.Time{}, false
	}
	parsed, err := time.Parse(TimestampLayout, timestamp)
	if err != nil {
		return "", time.Time{}, false
	}
	if parsed.Before(n.start) {
		return "", time.Time{}, false
	}
	return author.Login, parsed, true
}

// Code extracts code events from a pull request record. Only merged items
// qualify, attributed to the merge timestamp.
func (n *Normalizer) Code(rec Record) []Event {
	if rec.MergedAt == "" {
		return nil
	}
	login, at, ok := n.qualify(rec.Author, rec.MergedAt)
	if !ok {
		return nil
	}
	return []Event{{Author: login, Time: at, Category: CategoryCode}}
}

// Community extracts community events from an issue or discussion record: one
// for the post itself and one per comment, regardless of commenter identity.
func (n *Normalizer) Community(rec Record) []Event {
	var events []Event
	if login, at, ok := n.qualify(rec.Author, rec.CreatedAt); ok {
		events = append(events, Event{Author: login, Time: at, Category: CategoryCommunity})
	}
	for _, edge := range rec.Comments.Edges {
		if edge.Node == nil {
			continue
		}
		login, at, ok := n.qualify(edge.Node.Author, edge.Node.CreatedAt)
		if !ok {
			continue
		}
		events = append(events, Event{Author: login, Time: at, Category: CategoryCommunity})
	}
	return events
}

// Review extracts review events from a pull request record: one per comment
// and one per review, dropping interactions authored by the item's own author.
func (n *Normalizer) Review(rec Record) []Event {
	itemAuthor := ""
	if rec.Author != nil {
		itemAuthor = rec.Author.Login
	}

	var events []Event
	appendInteractions := func(list InteractionList) {
		for _, edge := range list.Edges {
			if edge.Node == nil {
				continue
			}
			login, at, ok := n.qualify(edge.Node.Author, edge.Node.CreatedAt)
			if !ok {
				continue
			}
			if login == itemAuthor {
				continue
			}
			events = append(events, Event{Author: login, Time: at, Category: CategoryReview})
		}
	}
	appendInteractions(rec.Comments)
	appendInteractions(rec.Reviews)
	return events
}

// Star extracts the (login, day) pair from a stargazer record. Stars are not
// subject to the start-date floor; pre-epoch stars stay in the history.
func (n *Normalizer) Star(rec StarRecord) (string, time.Time, bool) {
	if rec.Node == nil || rec.Node.Login == "" || rec.StarredAt == "" {
		return "", time.Time{}, false
	}
	parsed, err := time.Parse(TimestampLayout, rec.StarredAt)
	if err != nil {
		return "", time.Time{}, false
	}
	return rec.Node.Login, parsed, true
}
