package httpapi

import (
	"context"

	"github.com/riskibarqy/matchday-live/internal/domain/user"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}

// operatorID names who issued a command in logs; empty on public routes.
func operatorID(ctx context.Context) string {
	p, _ := principalFromContext(ctx)
	return p.UserID
}
