package auth

// Service is the auth/session contract consumed by the gateway, lobby, and
// ledger HTTP handlers. userID matches the identifier space internal/ledger
// and internal/table already use, so callers never have to translate
// between an "account" concept and a "user" concept.
type Service interface {
	Register(username, password string) (userID uint64, sessionToken string, err error)
	Login(username, password string) (userID uint64, sessionToken string, err error)
	ResolveSession(token string) (userID uint64, username string, ok bool)
	Logout(token string)
	Close() error
}
