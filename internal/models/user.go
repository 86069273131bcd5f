package models

import "time"

// Account tiers controlling quota policy.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// User represents a ledger record for one account. QuotaUsage counts
// successfully completed turns since LastReset; LastReset only moves forward.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Tier         string    `json:"tier"`
	QuotaUsage   int       `json:"quota_usage"`
	LastReset    string    `json:"last_reset"` // "YYYY-MM-DD"
	CreatedAt    time.Time `json:"created_at,omitempty"`
	ModifiedAt   time.Time `json:"modified_at,omitempty"`
}
