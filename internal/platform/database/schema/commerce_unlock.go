package schema

// CommerceUnlockTable represents the 'commerce.unlock' table
type CommerceUnlockTable struct {
	Table     string
	UserID    string
	ChapterID string
	Price     string
	CreatedAt string
}

// CommerceUnlock is the schema definition for commerce.unlock
var CommerceUnlock = CommerceUnlockTable{
	Table:     "commerce.unlock",
	UserID:    "userid",
	ChapterID: "chapterid",
	Price:     "price",
	CreatedAt: "createdat",
}
