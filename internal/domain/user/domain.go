package user

import "context"

// User is the slice of identity the engine needs to address a notification.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
