// Package engagement implements the idempotent toggle engine behind likes and
// subscriptions. Every toggle resolves to "the edge now exists" or "the edge
// is now gone"; the storage layer's uniqueness constraints arbitrate races, so
// the engine never needs a read-modify-write cycle.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrUnknownTarget indicates the like or subscription target does not exist.
	ErrUnknownTarget = errors.New("toggle target not found")
	// ErrSelfSubscription indicates a user attempted to subscribe to themselves.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
	// ErrContended indicates repeated toggles raced until the retry budget ran
	// out. The caller may simply retry.
	ErrContended = errors.New("toggle contended, retry")
)

// toggleAttempts bounds how often a toggle retries when a concurrent toggle
// flips the edge between our insert and delete.
const toggleAttempts = 3

// EdgeStore is the slice of the engagement repository the toggler writes to.
type EdgeStore interface {
	InsertLike(ctx context.Context, like models.Like) (bool, error)
	DeleteLike(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error)
	InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error)
	DeleteSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// TargetChecker reports whether a toggle target exists.
type TargetChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Result reports the outcome of a toggle.
type Result struct {
	// Active is true when the edge exists after the toggle.
	Active bool `json:"active"`
}

// Toggler flips like and subscription edges. Each call validates the target,
// then attempts an insert; if the edge already existed the insert writes
// nothing and the toggler deletes it instead.
type Toggler struct {
	edges    EdgeStore
	users    TargetChecker
	videos   TargetChecker
	comments TargetChecker
	tweets   TargetChecker

	// NowFunc overrides the clock stamping new edges; nil means time.Now.
	NowFunc func() time.Time
}

// NewToggler wires the toggle engine to its edge store and target checkers.
func NewToggler(edges EdgeStore, users, videos, comments, tweets TargetChecker) *Toggler {
	return &Toggler{edges: edges, users: users, videos: videos, comments: comments, tweets: tweets}
}

// ToggleLike flips the (liker, kind, target) edge and reports the new state.
func (t *Toggler) ToggleLike(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (Result, error) {
	checker, err := t.checkerFor(kind)
	if err != nil {
		return Result{}, err
	}
	if err := t.requireTarget(ctx, checker, targetID); err != nil {
		return Result{}, err
	}

	like := models.Like{LikerID: likerID, Kind: kind, TargetID: targetID, CreatedAt: t.now()}
	return t.flip(ctx,
		func(ctx context.Context) (bool, error) { return t.edges.InsertLike(ctx, like) },
		func(ctx context.Context) (bool, error) { return t.edges.DeleteLike(ctx, likerID, kind, targetID) },
	)
}

// ToggleSubscription flips the (subscriber, channel) edge and reports the new
// state. Subscribing to one's own channel is rejected.
func (t *Toggler) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (Result, error) {
	if subscriberID == channelID {
		return Result{}, ErrSelfSubscription
	}
	if err := t.requireTarget(ctx, t.users, channelID); err != nil {
		return Result{}, err
	}

	sub := models.Subscription{SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: t.now()}
	return t.flip(ctx,
		func(ctx context.Context) (bool, error) { return t.edges.InsertSubscription(ctx, sub) },
		func(ctx context.Context) (bool, error) { return t.edges.DeleteSubscription(ctx, subscriberID, channelID) },
	)
}

// flip attempts the insert-then-delete cycle. Insert writing a row means the
// edge was absent and is now active; otherwise the edge existed and the delete
// removes it. When a concurrent toggle wins both halves of the cycle, neither
// write lands and the cycle retries.
func (t *Toggler) flip(ctx context.Context, insert, remove func(context.Context) (bool, error)) (Result, error) {
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		created, err := insert(ctx)
		if err != nil {
			return Result{}, err
		}
		if created {
			return Result{Active: true}, nil
		}

		removed, err := remove(ctx)
		if err != nil {
			return Result{}, err
		}
		if removed {
			return Result{Active: false}, nil
		}
	}
	return Result{}, ErrContended
}

func (t *Toggler) now() time.Time {
	if t.NowFunc != nil {
		return t.NowFunc()
	}
	return time.Now().UTC()
}

func (t *Toggler) requireTarget(ctx context.Context, checker TargetChecker, id string) error {
	if id == "" {
		return ErrUnknownTarget
	}
	exists, err := checker.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check toggle target: %w", err)
	}
	if !exists {
		return ErrUnknownTarget
	}
	return nil
}

func (t *Toggler) checkerFor(kind models.LikeKind) (TargetChecker, error) {
	switch kind {
	case models.LikeVideo:
		return t.videos, nil
	case models.LikeComment:
		return t.comments, nil
	case models.LikeTweet:
		return t.tweets, nil
	default:
		return nil, fmt.Errorf("unsupported like kind %q", kind)
	}
}
