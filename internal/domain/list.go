package domain

// ListID is a unique identifier for a list.
type ListID string

// String returns the string representation of the ListID.
func (id ListID) String() string {
	return string(id)
}

// List is a user-created named group of followed account usernames,
// merged into a single timeline when viewed.
//
// UserNames may contain duplicates: the data layer does not guard
// membership, callers are expected to check before adding.
type List struct {
	ID        ListID   `json:"id"`
	Name      string   `json:"name"`
	UserNames []string `json:"user_names"`
}

// HasUser returns true if the list contains the given username.
func (l *List) HasUser(username string) bool {
	for _, u := range l.UserNames {
		if u == username {
			return true
		}
	}
	return false
}

// AddUser appends a username. No duplicate check, see type comment.
func (l *List) AddUser(username string) {
	l.UserNames = append(l.UserNames, username)
}

// RemoveUser removes the first occurrence of a username.
func (l *List) RemoveUser(username string) bool {
	for i, u := range l.UserNames {
		if u == username {
			l.UserNames = append(l.UserNames[:i], l.UserNames[i+1:]...)
			return true
		}
	}
	return false
}
