package domain

import "context"

// RequestMeta describes where a request came from. It is attached to the
// request context by the transport layer and copied into identities and
// audit events.
type RequestMeta struct {
	RequestID string `json:"requestId,omitempty"`
	RemoteIP  string `json:"remoteIp,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Identity is the authenticated principal of a single request.
type Identity struct {
	Principal *User
	Authority string
	Details   RequestMeta
}

// NewIdentity builds the identity for user. The authority is always derived
// from the stored role, never from token claims.
func NewIdentity(user *User, meta RequestMeta) *Identity {
	return &Identity{
		Principal: user,
		Authority: user.Role.Authority(),
		Details:   meta,
	}
}

// HasRole reports whether the identity's principal holds one of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil || i.Principal == nil {
		return false
	}
	for _, r := range roles {
		if i.Principal.Role == r {
			return true
		}
	}
	return false
}

type contextKey struct{ name string }

var (
	identityCtxKey = &contextKey{"identity"}
	metaCtxKey     = &contextKey{"request-meta"}
)

// ContextWithIdentity stores id in ctx. An identity can be set at most once
// per request; a second call returns ErrIdentityAlreadySet and the original
// context.
func ContextWithIdentity(ctx context.Context, id *Identity) (context.Context, error) {
	if _, ok := IdentityFromContext(ctx); ok {
		return ctx, ErrIdentityAlreadySet
	}
	return context.WithValue(ctx, identityCtxKey, id), nil
}

// IdentityFromContext returns the request identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(*Identity)
	return id, ok && id != nil
}

func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaCtxKey, meta)
}

func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(metaCtxKey).(RequestMeta)
	return meta
}
