package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/iconidentify/canary/internal/domain"
)

// fakeClient returns a fixed page for any query and records the last one.
type fakeClient struct {
	tweets    []domain.Tweet
	next      string
	lastQuery string
	lastSort  string
}

func (c *fakeClient) SearchTweets(ctx context.Context, query, sortOrder, cursor string) ([]domain.Tweet, string, error) {
	c.lastQuery = query
	c.lastSort = sortOrder
	return c.tweets, c.next, nil
}

func (c *fakeClient) ConversationTweets(ctx context.Context, conversationID, cursor string) ([]domain.Tweet, string, error) {
	return c.SearchTweets(ctx, "conversation_id:"+conversationID, SortRecency, cursor)
}

type staticPrefs struct {
	topics       []string
	verifiedOnly bool
	shareHidden  bool
}

func (p staticPrefs) Topics() []string      { return p.topics }
func (p staticPrefs) VerifiedOnly() bool    { return p.verifiedOnly }
func (p staticPrefs) ShareCardHidden() bool { return p.shareHidden }

func makeTweets(n int) []domain.Tweet {
	tweets := make([]domain.Tweet, 0, n)
	for i := 0; i < n; i++ {
		tweets = append(tweets, domain.Tweet{ID: domain.TweetID(fmt.Sprintf("t%d", i))})
	}
	return tweets
}

func TestBuildTimelineQuery(t *testing.T) {
	tests := []struct {
		name         string
		topics       []string
		verifiedOnly bool
		want         string
	}{
		{
			name:   "topics only",
			topics: []string{"golang", "privacy"},
			want:   "(golang OR privacy) -is:retweet -is:reply",
		},
		{
			name:         "verified filter",
			topics:       []string{"news"},
			verifiedOnly: true,
			want:         "(news) -is:retweet -is:reply is:verified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildTimelineQuery(tt.topics, tt.verifiedOnly); got != tt.want {
				t.Errorf("BuildTimelineQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildListQuery_DeduplicatesUsernames(t *testing.T) {
	got := BuildListQuery([]string{"alice", "bob", "alice"})
	want := "(from:alice OR from:bob)"
	if got != want {
		t.Errorf("BuildListQuery() = %q, want %q", got, want)
	}
}

func TestTimelineSource_InsertsShareCardInFirstPage(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(8), next: "p2"}
	src := NewTimelineSource(client, staticPrefs{topics: []string{"art"}})

	page, err := src.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(page.Items) != 9 {
		t.Fatalf("got %d cards, want 8 tweets + 1 share card", len(page.Items))
	}
	if page.Items[shareCardOffset].Type != CardTypeShareApp {
		t.Errorf("card at offset %d = %q, want share card", shareCardOffset, page.Items[shareCardOffset].Type)
	}
	// Tweet order around the share card is preserved.
	if page.Items[shareCardOffset-1].Tweet.ID != "t4" || page.Items[shareCardOffset+1].Tweet.ID != "t5" {
		t.Error("share card insertion must not reorder tweets")
	}
}

func TestTimelineSource_NoShareCardOnLaterPages(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(8)}
	src := NewTimelineSource(client, staticPrefs{topics: []string{"art"}})

	page, err := src.FetchPage(context.Background(), "p2")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	for _, card := range page.Items {
		if card.Type == CardTypeShareApp {
			t.Fatal("share card belongs to the first page only")
		}
	}
}

func TestTimelineSource_ShareCardHidden(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(8)}
	src := NewTimelineSource(client, staticPrefs{topics: []string{"art"}, shareHidden: true})

	page, err := src.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(page.Items) != 8 {
		t.Errorf("got %d cards, want 8 with share card hidden", len(page.Items))
	}
}

func TestTimelineSource_ShortFirstPageSkipsShareCard(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(3)}
	src := NewTimelineSource(client, staticPrefs{topics: []string{"art"}})

	page, err := src.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(page.Items) != 3 {
		t.Errorf("got %d cards, want 3 (page too short for the share card)", len(page.Items))
	}
}

func TestCard_Key(t *testing.T) {
	tweet := domain.Tweet{ID: "t1"}

	tests := []struct {
		name string
		card Card
		want string
	}{
		{"tweet card", Card{Type: CardTypeTweet, Tweet: &tweet}, "t1"},
		{"share card", Card{Type: CardTypeShareApp}, "share_app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchSource_DefaultsToRecency(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(2)}
	src := NewSearchSource(client, "from:alice", "")

	if _, err := src.FetchPage(context.Background(), ""); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if client.lastSort != SortRecency {
		t.Errorf("sort = %q, want %q", client.lastSort, SortRecency)
	}
	if client.lastQuery != "from:alice" {
		t.Errorf("query = %q, want %q", client.lastQuery, "from:alice")
	}
}

func TestThreadSource_QueriesConversation(t *testing.T) {
	client := &fakeClient{tweets: makeTweets(2)}
	src := NewThreadSource(client, "12345")

	if _, err := src.FetchPage(context.Background(), ""); err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if client.lastQuery != "conversation_id:12345" {
		t.Errorf("query = %q, want conversation query", client.lastQuery)
	}
}
