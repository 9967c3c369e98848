package domain

// CollectionID is a unique identifier for a collection.
type CollectionID string

// String returns the string representation of the CollectionID.
func (id CollectionID) String() string {
	return string(id)
}

// ColorScheme identifies the card color pair used to render a collection.
type ColorScheme string

// ColorSchemes is the palette cycled through as collections are created.
var ColorSchemes = []ColorScheme{
	"golden",
	"sherpa",
	"coral",
	"orchid",
	"pine",
	"slate",
}

// Collection is a user-created named group of bookmarked tweet ids.
// TweetIDs insertion order is display order.
type Collection struct {
	ID          CollectionID `json:"id"`
	Name        string       `json:"name"`
	ColorScheme ColorScheme  `json:"color_scheme"`
	TweetIDs    []string     `json:"tweet_ids"`
}

// HasTweet returns true if the collection contains the given tweet id.
func (c *Collection) HasTweet(tweetID string) bool {
	for _, id := range c.TweetIDs {
		if id == tweetID {
			return true
		}
	}
	return false
}

// AddTweet appends a tweet id if not already present. Adding a tweet
// that is already in the collection is a no-op, not an error.
func (c *Collection) AddTweet(tweetID string) bool {
	if c.HasTweet(tweetID) {
		return false
	}
	c.TweetIDs = append(c.TweetIDs, tweetID)
	return true
}

// RemoveTweet removes a tweet id from the collection.
func (c *Collection) RemoveTweet(tweetID string) bool {
	for i, id := range c.TweetIDs {
		if id == tweetID {
			c.TweetIDs = append(c.TweetIDs[:i], c.TweetIDs[i+1:]...)
			return true
		}
	}
	return false
}
