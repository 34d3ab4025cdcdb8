package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SubscriptionRepository resolves creator subscriber sets.
type SubscriptionRepository interface {
	ActiveSubscriberIDs(ctx context.Context, creatorID int64) ([]int64, error)
}

// SubscriptionRepo is a sqlx-backed repository.
type SubscriptionRepo struct {
	db *sqlx.DB
}

// NewSubscriptionRepo constructs SubscriptionRepo.
func NewSubscriptionRepo(db *sqlx.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// ActiveSubscriberIDs returns subscribers whose plan is enabled and whose
// subscription either holds a free-tier grant or has not lapsed.
func (r *SubscriptionRepo) ActiveSubscriberIDs(ctx context.Context, creatorID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT s.subscriber_id
         FROM subscriptions s
         JOIN plans p ON p.id = s.plan_id
         WHERE s.creator_id=$1
           AND p.enabled
           AND s.subscriber_id <> s.creator_id
           AND (s.free_grant OR (NOT s.cancelled AND (s.expires_at IS NULL OR s.expires_at > NOW())))
         ORDER BY s.subscriber_id`, creatorID)
	return ids, err
}
