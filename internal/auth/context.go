package auth

import "context"

type contextKey struct{}

type AuthContext struct {
	CoupleID  int64
	ProfileID int64
	Gender    string
	DeviceID  string
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func CoupleID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.CoupleID
}

func ProfileID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.ProfileID
}

func Gender(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Gender
}

type adminKey struct{}

type AdminContext struct {
	AdminID int64
	Email   string
	Role    string
}

func WithAdmin(ctx context.Context, ac AdminContext) context.Context {
	return context.WithValue(ctx, adminKey{}, ac)
}

func AdminFromContext(ctx context.Context) (AdminContext, bool) {
	ac, ok := ctx.Value(adminKey{}).(AdminContext)
	return ac, ok
}
