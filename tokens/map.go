package tokens

// MapStore holds tokens in an in-memory set. Suitable for configuration
// file-based token storage.
type MapStore struct {
	tokens map[string]struct{}
}

// NewMapStore creates a map-based token store from the given set.
func NewMapStore(tokens map[string]struct{}) *MapStore {
	return &MapStore{tokens: tokens}
}

// Contains reports whether token is in the store.
func (s *MapStore) Contains(token string) bool {
	_, found := s.tokens[token]
	return found
}
