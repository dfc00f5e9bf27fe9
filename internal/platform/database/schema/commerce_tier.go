package schema

// CommerceTierTable represents the 'commerce.tier' table
type CommerceTierTable struct {
	Table     string
	ID        string
	SeriesID  string
	Name      string
	Perks     string
	Price     string
	CreatedAt string
}

// CommerceTier is the schema definition for commerce.tier
var CommerceTier = CommerceTierTable{
	Table:     "commerce.tier",
	ID:        "id",
	SeriesID:  "seriesid",
	Name:      "name",
	Perks:     "perks",
	Price:     "price",
	CreatedAt: "createdat",
}
