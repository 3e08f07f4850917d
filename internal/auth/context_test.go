package auth

import (
	"context"
	"testing"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{
		UserID:    3,
		Email:     "ada@example.com",
		FirstName: "Ada",
		Session:   "tok",
	})

	p, ok := PrincipalFrom(ctx)
	if !ok {
		t.Fatal("expected principal")
	}
	if p.Email != "ada@example.com" || p.FirstName != "Ada" || p.Session != "tok" {
		t.Errorf("principal = %+v", p)
	}
	if UserID(ctx) != 3 {
		t.Errorf("UserID = %d, want 3", UserID(ctx))
	}
}

func TestPrincipalAnonymous(t *testing.T) {
	cases := map[string]context.Context{
		"missing": context.Background(),
		"zero id": WithPrincipal(context.Background(), Principal{Email: "x@example.com"}),
	}
	for name, ctx := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := PrincipalFrom(ctx); ok {
				t.Error("expected anonymous")
			}
			if UserID(ctx) != 0 {
				t.Error("expected 0 user id")
			}
		})
	}
}
