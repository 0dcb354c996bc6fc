package vesting

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/vesting/types"
)

type callerKey struct{}

// WithCaller returns a context carrying the account performing an operation.
func WithCaller(ctx context.Context, account types.Account) context.Context {
	return context.WithValue(ctx, callerKey{}, account)
}

// CallerFrom returns the account stored by WithCaller.
func CallerFrom(ctx context.Context) (types.Account, bool) {
	account, ok := ctx.Value(callerKey{}).(types.Account)
	if !ok || account.IsZero() {
		return "", false
	}
	return account, true
}

// Authorizer decides whether a caller may run administrator operations.
type Authorizer interface {
	IsAdministrator(ctx context.Context, caller types.Account) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, caller types.Account) bool

// IsAdministrator implements Authorizer.
func (f AuthorizerFunc) IsAdministrator(ctx context.Context, caller types.Account) bool {
	return f(ctx, caller)
}

// Administrators returns an Authorizer accepting exactly the given accounts.
func Administrators(accounts ...types.Account) Authorizer {
	allowed := mapset.NewSet[types.Account]()
	for _, a := range accounts {
		if !a.IsZero() {
			allowed.Add(a)
		}
	}
	return AuthorizerFunc(func(_ context.Context, caller types.Account) bool {
		return allowed.Contains(caller)
	})
}
