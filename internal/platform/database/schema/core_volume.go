package schema

// CoreVolumeTable represents the 'core.volume' table
type CoreVolumeTable struct {
	Table        string
	ID           string
	SeriesID     string
	VolumeNumber string
	Title        string
	ChapterCount string
	CreatedAt    string
}

// CoreVolume is the schema definition for core.volume
var CoreVolume = CoreVolumeTable{
	Table:        "core.volume",
	ID:           "id",
	SeriesID:     "seriesid",
	VolumeNumber: "volumenumber",
	Title:        "title",
	ChapterCount: "chaptercount",
	CreatedAt:    "createdat",
}
