package models

// Account is the stored credential record for a user. Hash is a
// self-describing PHC string (algorithm, parameters, salt and digest).
type Account struct {
	Username string `json:"username"`
	Hash     string `json:"hash"`
}

// User pairs an account with the user ID it is stored under.
type User struct {
	ID      string
	Account Account
}

// Session is the stored record behind an opaque session token. ExpiresAt
// is a unix timestamp in seconds; every successful validation rewrites it
// (sliding expiry).
type Session struct {
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"`
}
