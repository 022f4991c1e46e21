// Package subscription stores which Telegram users may use the bot.
package subscription

import "time"

// Record is one row of the subscriptions table.
type Record struct {
	UserID           int64     `db:"user_id"`
	IsSubscribed     bool      `db:"is_subscribed"`
	IsAdmin          bool      `db:"is_admin"`
	SubscriptionDate time.Time `db:"subscription_date"`
	UpdatedAt        time.Time `db:"updated_at"`
}
