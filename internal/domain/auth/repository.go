package auth

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Search   string
	IsActive *bool

	Limit  int
	Offset int
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter UserFilter) ([]User, int, error)
}
