package schema

// CoreSeriesTable represents the 'core.series' table
type CoreSeriesTable struct {
	Table     string
	ID        string
	AuthorID  string
	Kind      string
	Title     string
	Slug      string
	IsTrashed string
	CreatedAt string
	UpdatedAt string
}

// CoreSeries is the schema definition for core.series
var CoreSeries = CoreSeriesTable{
	Table:     "core.series",
	ID:        "id",
	AuthorID:  "authorid",
	Kind:      "kind",
	Title:     "title",
	Slug:      "slug",
	IsTrashed: "istrashed",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
