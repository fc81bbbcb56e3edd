package session

// StoreInterface abstracts the backing storage for issued session tokens.
// Tokens are opaque strings; a stored token is a valid session.
type StoreInterface interface {
	Save(token string)
	Valid(token string) bool
	Delete(token string)
	Close() error
}
