// Package session persists in-progress workflow state per (user, workflow kind).
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/career-assistant/internal/workflow"
)

// ErrNilState is returned when Put is called without a state
var ErrNilState = errors.New("session: nil state")

// Key identifies one user's session in one workflow
type Key struct {
	UserID int64
	Kind   workflow.Kind
}

// String renders the key as user_{id}_{kind}
func (k Key) String() string {
	return userPrefix(k.UserID) + string(k.Kind)
}

func userPrefix(userID int64) string {
	return "user_" + strconv.FormatInt(userID, 10) + "_"
}

// ParseKey is the inverse of Key.String
func ParseKey(s string) (Key, error) {
	rest, ok := strings.CutPrefix(s, "user_")
	if !ok {
		return Key{}, fmt.Errorf("session key %q: missing user prefix", s)
	}
	idPart, kindPart, ok := strings.Cut(rest, "_")
	if !ok {
		return Key{}, fmt.Errorf("session key %q: missing kind", s)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("session key %q: bad user id: %w", s, err)
	}
	kind, err := workflow.ParseKind(kindPart)
	if err != nil {
		return Key{}, fmt.Errorf("session key %q: %w", s, err)
	}
	return Key{UserID: id, Kind: kind}, nil
}

// Store holds workflow states. Implementations copy on the way in and out:
// mutating a state returned by Get never changes what is stored.
type Store interface {
	Get(ctx context.Context, key Key) (*workflow.State, bool, error)
	Put(ctx context.Context, key Key, st *workflow.State) error
	Delete(ctx context.Context, key Key) error
	// ListByUser returns every key held for the user
	ListByUser(ctx context.Context, userID int64) ([]Key, error)
	// DeleteUser removes every session of the user and reports how many were removed
	DeleteUser(ctx context.Context, userID int64) (int, error)
}
