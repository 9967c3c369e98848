package feed

import (
	"context"
	"strings"

	"github.com/iconidentify/canary/internal/domain"
)

// CardType discriminates timeline cards. Synthetic cards are opaque to
// the engine: they carry their own fixed key and are never paginated.
type CardType string

const (
	CardTypeTweet    CardType = "tweet"
	CardTypeShareApp CardType = "share_app"
)

// Card is the envelope item flowing through timeline engines.
type Card struct {
	Type  CardType      `json:"card_type"`
	Tweet *domain.Tweet `json:"tweet,omitempty"`
}

// Key returns the de-duplication key for the card.
func (c Card) Key() string {
	if c.Type == CardTypeTweet && c.Tweet != nil {
		return c.Tweet.ID.String()
	}
	return string(c.Type)
}

// shareCardOffset is the number of tweets shown before the share card.
const shareCardOffset = 5

// TimelinePreferences supplies the user preferences the home timeline is
// built from, re-read on every fetch so refresh picks up changes.
type TimelinePreferences interface {
	Topics() []string
	VerifiedOnly() bool
	ShareCardHidden() bool
}

// TimelineSource feeds the home timeline from the user's topic
// preferences, interleaving one share card into the first page.
type TimelineSource struct {
	client Client
	prefs  TimelinePreferences
}

// NewTimelineSource creates the home timeline source.
func NewTimelineSource(client Client, prefs TimelinePreferences) *TimelineSource {
	return &TimelineSource{client: client, prefs: prefs}
}

// FetchPage fetches the next timeline page.
func (s *TimelineSource) FetchPage(ctx context.Context, cursor string) (Page[Card], error) {
	query := BuildTimelineQuery(s.prefs.Topics(), s.prefs.VerifiedOnly())

	tweets, next, err := s.client.SearchTweets(ctx, query, SortRecency, cursor)
	if err != nil {
		return Page[Card]{}, err
	}

	cards := wrapTweets(tweets)
	if cursor == "" && !s.prefs.ShareCardHidden() && len(cards) > shareCardOffset {
		cards = append(cards[:shareCardOffset],
			append([]Card{{Type: CardTypeShareApp}}, cards[shareCardOffset:]...)...)
	}

	return Page[Card]{Items: cards, NextCursor: next}, nil
}

// Key returns the card's de-duplication key.
func (s *TimelineSource) Key(item Card) string {
	return item.Key()
}

// BuildTimelineQuery assembles the search query for the home timeline.
func BuildTimelineQuery(topics []string, verifiedOnly bool) string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, topic := range topics {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(topic)
	}
	sb.WriteString(") -is:retweet -is:reply")
	if verifiedOnly {
		sb.WriteString(" is:verified")
	}
	return sb.String()
}

// SearchSource feeds search result lists for a fixed query.
type SearchSource struct {
	client    Client
	query     string
	sortOrder string
}

// NewSearchSource creates a search source. sortOrder defaults to recency.
func NewSearchSource(client Client, query, sortOrder string) *SearchSource {
	if sortOrder == "" {
		sortOrder = SortRecency
	}
	return &SearchSource{client: client, query: query, sortOrder: sortOrder}
}

// FetchPage fetches the next page of search results.
func (s *SearchSource) FetchPage(ctx context.Context, cursor string) (Page[Card], error) {
	tweets, next, err := s.client.SearchTweets(ctx, s.query, s.sortOrder, cursor)
	if err != nil {
		return Page[Card]{}, err
	}
	return Page[Card]{Items: wrapTweets(tweets), NextCursor: next}, nil
}

// Key returns the card's de-duplication key.
func (s *SearchSource) Key(item Card) string {
	return item.Key()
}

// ListSource merges the timelines of a list's member accounts.
type ListSource struct {
	client    Client
	userNames []string
}

// NewListSource creates a source over the given usernames.
func NewListSource(client Client, userNames []string) *ListSource {
	return &ListSource{client: client, userNames: userNames}
}

// FetchPage fetches the next page of the merged list timeline.
func (s *ListSource) FetchPage(ctx context.Context, cursor string) (Page[Card], error) {
	tweets, next, err := s.client.SearchTweets(ctx, BuildListQuery(s.userNames), SortRecency, cursor)
	if err != nil {
		return Page[Card]{}, err
	}
	return Page[Card]{Items: wrapTweets(tweets), NextCursor: next}, nil
}

// Key returns the card's de-duplication key.
func (s *ListSource) Key(item Card) string {
	return item.Key()
}

// BuildListQuery assembles the from: query for a list's members.
func BuildListQuery(userNames []string) string {
	parts := make([]string, 0, len(userNames))
	seen := make(map[string]bool, len(userNames))
	for _, u := range userNames {
		// Lists may hold duplicate usernames; the query needs each once.
		if seen[u] {
			continue
		}
		seen[u] = true
		parts = append(parts, "from:"+u)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// ThreadSource feeds the replies of one conversation.
type ThreadSource struct {
	client         Client
	conversationID string
}

// NewThreadSource creates a source over a conversation id.
func NewThreadSource(client Client, conversationID string) *ThreadSource {
	return &ThreadSource{client: client, conversationID: conversationID}
}

// FetchPage fetches the next page of replies.
func (s *ThreadSource) FetchPage(ctx context.Context, cursor string) (Page[Card], error) {
	tweets, next, err := s.client.ConversationTweets(ctx, s.conversationID, cursor)
	if err != nil {
		return Page[Card]{}, err
	}
	return Page[Card]{Items: wrapTweets(tweets), NextCursor: next}, nil
}

// Key returns the card's de-duplication key.
func (s *ThreadSource) Key(item Card) string {
	return item.Key()
}

func wrapTweets(tweets []domain.Tweet) []Card {
	cards := make([]Card, 0, len(tweets))
	for i := range tweets {
		cards = append(cards, Card{Type: CardTypeTweet, Tweet: &tweets[i]})
	}
	return cards
}
