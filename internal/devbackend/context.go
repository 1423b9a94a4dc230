package devbackend

import "context"

func withUser(ctx context.Context, u *user) context.Context {
	return context.WithValue(ctx, ctxUser{}, u)
}

func userFrom(ctx context.Context) *user {
	u, _ := ctx.Value(ctxUser{}).(*user)
	return u
}
