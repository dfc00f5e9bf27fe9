package schema

// CoreChapterTable represents the 'core.chapter' table
type CoreChapterTable struct {
	Table              string
	ID                 string
	SeriesID           string
	VolumeID           string
	ChapterNumber      string
	CurrentVersionID   string
	PublishedVersionID string
	PublishedDate      string
	Price              string
	CreatedAt          string
	UpdatedAt          string
}

// CoreChapter is the schema definition for core.chapter
var CoreChapter = CoreChapterTable{
	Table:              "core.chapter",
	ID:                 "id",
	SeriesID:           "seriesid",
	VolumeID:           "volumeid",
	ChapterNumber:      "chapternumber",
	CurrentVersionID:   "currentversionid",
	PublishedVersionID: "publishedversionid",
	PublishedDate:      "publisheddate",
	Price:              "price",
	CreatedAt:          "createdat",
	UpdatedAt:          "updatedat",
}

func (t CoreChapterTable) Columns() []string {
	return []string{
		t.ID, t.SeriesID, t.VolumeID, t.ChapterNumber, t.CurrentVersionID,
		t.PublishedVersionID, t.PublishedDate, t.Price, t.CreatedAt, t.UpdatedAt,
	}
}
