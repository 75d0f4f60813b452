package auth

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uint
	Role   Role
}

func (id Identity) IsFarmer() bool { return id.Role == RoleFarmer }
func (id Identity) IsBuyer() bool  { return id.Role == RoleBuyer }

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller identity, if the request was authenticated.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
