package session

import "sync"

// MemoryStore keeps session tokens in process memory. Sessions survive until
// an explicit logout or server restart; there is no idle expiry.
type MemoryStore struct {
	tokens sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (st *MemoryStore) Save(token string) {
	st.tokens.Store(token, true)
}

func (st *MemoryStore) Valid(token string) bool {
	_, ok := st.tokens.Load(token)
	return ok
}

func (st *MemoryStore) Delete(token string) {
	st.tokens.Delete(token)
}

func (st *MemoryStore) Close() error {
	return nil
}
