package domain

// User is an account that can log into the API. The credential is only
// ever stored as a salted one-way hash.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Identity is the authenticated subject carried by a session.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
