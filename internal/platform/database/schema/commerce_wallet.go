package schema

// CommerceWalletTable represents the 'commerce.wallet' table
type CommerceWalletTable struct {
	Table     string
	UserID    string
	Balance   string
	UpdatedAt string
}

// CommerceWallet is the schema definition for commerce.wallet
var CommerceWallet = CommerceWalletTable{
	Table:     "commerce.wallet",
	UserID:    "userid",
	Balance:   "balance",
	UpdatedAt: "updatedat",
}
