package store

// User is an authenticated account.
type User struct {
	ID           int32
	Email        string
	PasswordHash string
	CreatedTs    int64
}

type FindUser struct {
	ID    *int32
	Email *string
}
