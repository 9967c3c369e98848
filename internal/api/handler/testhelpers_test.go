package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/iconidentify/canary/internal/cache"
	"github.com/iconidentify/canary/internal/domain"
	"github.com/iconidentify/canary/internal/event"
	"github.com/iconidentify/canary/internal/service"
	"github.com/iconidentify/canary/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCollectionHandler(t *testing.T) (*CollectionHandler, *service.CollectionService) {
	t.Helper()
	svc := service.NewCollectionService(store.NewMemoryStore(), testLogger())
	return NewCollectionHandler(svc, testLogger()), svc
}

func newListHandler(t *testing.T) (*ListHandler, *service.ListService) {
	t.Helper()
	svc := service.NewListService(store.NewMemoryStore(), testLogger())
	return NewListHandler(svc, testLogger()), svc
}

func newPreferencesHandler(t *testing.T) (*PreferencesHandler, *service.Preferences) {
	t.Helper()
	c := cache.New(store.NewMemoryStore(), testLogger())
	t.Cleanup(c.Close)
	prefs := service.NewPreferences(c, event.NewBus(), testLogger())
	return NewPreferencesHandler(prefs, testLogger()), prefs
}

// fakeFeedClient serves a fixed tweet page regardless of query.
type fakeFeedClient struct {
	tweets []domain.Tweet
	next   string
	err    error
}

func (f *fakeFeedClient) SearchTweets(ctx context.Context, query, sortOrder, cursor string) ([]domain.Tweet, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.tweets, f.next, nil
}

func (f *fakeFeedClient) ConversationTweets(ctx context.Context, conversationID, cursor string) ([]domain.Tweet, string, error) {
	return f.SearchTweets(ctx, "", "", cursor)
}

func sampleTweets(ids ...string) []domain.Tweet {
	tweets := make([]domain.Tweet, 0, len(ids))
	for _, id := range ids {
		tweets = append(tweets, domain.Tweet{
			ID:     domain.TweetID(id),
			Text:   "tweet " + id,
			Author: domain.Author{ID: "u1", Username: "someone"},
		})
	}
	return tweets
}
