package schema

// CoreChapterVersionTable represents the 'core.chapterversion' table
type CoreChapterVersionTable struct {
	Table       string
	ID          string
	ChapterID   string
	Title       string
	Thumbnail   string
	Content     string
	Note        string
	VersionName string
	IsAutoSave  string
	Status      string
	CreatedAt   string
}

// CoreChapterVersion is the schema definition for core.chapterversion
var CoreChapterVersion = CoreChapterVersionTable{
	Table:       "core.chapterversion",
	ID:          "id",
	ChapterID:   "chapterid",
	Title:       "title",
	Thumbnail:   "thumbnail",
	Content:     "content",
	Note:        "note",
	VersionName: "versionname",
	IsAutoSave:  "isautosave",
	Status:      "status",
	CreatedAt:   "createdat",
}

func (t CoreChapterVersionTable) Columns() []string {
	return []string{
		t.ID, t.ChapterID, t.Title, t.Thumbnail, t.Content, t.Note,
		t.VersionName, t.IsAutoSave, t.Status, t.CreatedAt,
	}
}
