package auth

import (
	"context"

	"linguaformula/internal/entity"
	"linguaformula/internal/session"
)

// Kind is the coarse login state of a browser.
type Kind int

const (
	// None: no markers, or the backend did not recognize them.
	None Kind = iota
	// PendingVerification: markers present, backend not yet asked.
	PendingVerification
	// Active: the backend returned a user.
	Active
)

func (k Kind) String() string {
	switch k {
	case PendingVerification:
		return "pending_verification"
	case Active:
		return "active"
	default:
		return "none"
	}
}

// State is the resolved session of one request.
type State struct {
	Kind Kind
	User *entity.User
}

func (s State) SignedIn() bool { return s.Kind == Active && s.User != nil }

func (s State) IsAdmin() bool { return s.SignedIn() && s.User.IsAdmin }

// Classify looks at local markers only.
func Classify(m session.Markers) Kind {
	if m.Any() {
		return PendingVerification
	}
	return None
}

type ctxKey struct{}

func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the state stored by the bootstrap middleware, or the
// zero State (None) when there is none.
func FromContext(ctx context.Context) State {
	s, _ := ctx.Value(ctxKey{}).(State)
	return s
}
