package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin    = "ADMIN"
	RoleBusiness = "BUSINESS"
	RoleCustomer = "CUSTOMER"
)

// Claims identify the user behind a request. They are issued by the account
// portal and read from the shared session.
type Claims struct {
	UserID int
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Role == RoleAdmin
}
