package models

import "time"

// Plan is a creator's subscription tier.
type Plan struct {
	ID         int64     `db:"id" json:"id"`
	CreatorID  int64     `db:"creator_id" json:"creator_id"`
	Name       string    `db:"name" json:"name"`
	Enabled    bool      `db:"enabled" json:"enabled"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Subscription links a subscriber to a creator's plan. A subscriber is active
// when the plan is enabled and either the subscription has not lapsed or a
// free-tier grant is held.
type Subscription struct {
	ID           int64      `db:"id" json:"id"`
	SubscriberID int64      `db:"subscriber_id" json:"subscriber_id"`
	CreatorID    int64      `db:"creator_id" json:"creator_id"`
	PlanID       int64      `db:"plan_id" json:"plan_id"`
	Cancelled    bool       `db:"cancelled" json:"cancelled"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	FreeGrant    bool       `db:"free_grant" json:"free_grant"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
