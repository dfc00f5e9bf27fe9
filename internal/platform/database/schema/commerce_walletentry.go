package schema

// CommerceWalletEntryTable represents the 'commerce.walletentry' table
type CommerceWalletEntryTable struct {
	Table     string
	ID        string
	UserID    string
	Amount    string
	Reference string
	CreatedAt string
}

// CommerceWalletEntry is the schema definition for commerce.walletentry
var CommerceWalletEntry = CommerceWalletEntryTable{
	Table:     "commerce.walletentry",
	ID:        "id",
	UserID:    "userid",
	Amount:    "amount",
	Reference: "reference",
	CreatedAt: "createdat",
}
