package schema

// CommerceSubscriptionTable represents the 'commerce.subscription' table
type CommerceSubscriptionTable struct {
	Table     string
	ID        string
	UserID    string
	SeriesID  string
	TierID    string
	Status    string
	ExpiresAt string
	CreatedAt string
	UpdatedAt string
}

// CommerceSubscription is the schema definition for commerce.subscription
var CommerceSubscription = CommerceSubscriptionTable{
	Table:     "commerce.subscription",
	ID:        "id",
	UserID:    "userid",
	SeriesID:  "seriesid",
	TierID:    "tierid",
	Status:    "status",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

func (t CommerceSubscriptionTable) Columns() []string {
	return []string{t.ID, t.UserID, t.SeriesID, t.TierID, t.Status, t.ExpiresAt, t.CreatedAt, t.UpdatedAt}
}
