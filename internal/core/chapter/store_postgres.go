// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
//
// Every statement goes through [postgres.Conn] so it joins the transaction opened
// by the service. The chapter number uniqueness constraint is deferred until
// commit, which lets swaps and renumbering pass through duplicate states.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed chapter store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

var chapterColumns = schema.Select("", schema.CoreChapter.Columns())

func scanChapter(row pgx.Row) (*Chapter, error) {
	var chapter Chapter
	err := row.Scan(
		&chapter.ID, &chapter.SeriesID, &chapter.VolumeID, &chapter.ChapterNumber, &chapter.CurrentVersionID,
		&chapter.PublishedVersionID, &chapter.PublishedDate, &chapter.Price, &chapter.CreatedAt, &chapter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (repository *postgresRepository) queryChapters(context context.Context, action, query string, args ...any) ([]*Chapter, error) {
	rows, err := postgres.Conn(context, repository.pool).Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	return chapters, dberr.Wrap(rows.Err(), action)
}

// CreateChapter inserts the chapter row. The current version FK is checked at commit.
func (repository *postgresRepository) CreateChapter(context context.Context, chapter *Chapter) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s
	`,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID, schema.CoreChapter.SeriesID, schema.CoreChapter.VolumeID,
		schema.CoreChapter.ChapterNumber, schema.CoreChapter.CurrentVersionID, schema.CoreChapter.Price,
		schema.CoreChapter.CreatedAt, schema.CoreChapter.UpdatedAt,
	)

	err := postgres.Conn(context, repository.pool).QueryRow(context, query,
		chapter.ID, chapter.SeriesID, chapter.VolumeID, chapter.ChapterNumber, chapter.CurrentVersionID, chapter.Price,
	).Scan(&chapter.CreatedAt, &chapter.UpdatedAt)

	return dberr.Wrap(err, "insert_chapter")
}

// FindChapter loads a chapter by primary key.
func (repository *postgresRepository) FindChapter(context context.Context, id string) (*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		chapterColumns, schema.CoreChapter.Table, schema.CoreChapter.ID)

	chapter, err := scanChapter(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Chapter")
		}
		return nil, dberr.Wrap(err, "find_chapter")
	}

	return chapter, nil
}

// LockChapter loads a chapter with SELECT ... FOR UPDATE.
func (repository *postgresRepository) LockChapter(context context.Context, id string) (*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`,
		chapterColumns, schema.CoreChapter.Table, schema.CoreChapter.ID)

	chapter, err := scanChapter(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Chapter")
		}
		return nil, dberr.Wrap(err, "lock_chapter")
	}

	return chapter, nil
}

// FindChapters loads every listed chapter in one round-trip.
func (repository *postgresRepository) FindChapters(context context.Context, ids []string) ([]*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::uuid[])`,
		chapterColumns, schema.CoreChapter.Table, schema.CoreChapter.ID)

	return repository.queryChapters(context, "find_chapters", query, ids)
}

// ListByVolume returns a volume's chapters in reading order.
func (repository *postgresRepository) ListByVolume(context context.Context, volumeID string) ([]*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		chapterColumns, schema.CoreChapter.Table, schema.CoreChapter.VolumeID, schema.CoreChapter.ChapterNumber)

	return repository.queryChapters(context, "list_volume_chapters", query, volumeID)
}

// ListScheduled uses the partial publish-date index to find a series' advance chapters.
func (repository *postgresRepository) ListScheduled(context context.Context, seriesID string, after time.Time) ([]*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s > $2`,
		chapterColumns, schema.CoreChapter.Table, schema.CoreChapter.SeriesID, schema.CoreChapter.PublishedDate)

	return repository.queryChapters(context, "list_scheduled_chapters", query, seriesID, after)
}

// SaveChapter writes the mutable chapter columns.
func (repository *postgresRepository) SaveChapter(context context.Context, chapter *Chapter) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		schema.CoreChapter.Table,
		schema.CoreChapter.CurrentVersionID, schema.CoreChapter.PublishedVersionID,
		schema.CoreChapter.PublishedDate, schema.CoreChapter.Price, schema.CoreChapter.UpdatedAt,
		schema.CoreChapter.ID,
		schema.CoreChapter.UpdatedAt,
	)

	err := postgres.Conn(context, repository.pool).QueryRow(context, query,
		chapter.ID, chapter.CurrentVersionID, chapter.PublishedVersionID, chapter.PublishedDate, chapter.Price,
	).Scan(&chapter.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Chapter")
		}
		return dberr.Wrap(err, "save_chapter")
	}

	return nil
}

// SetChapterNumber rewrites one chapter number.
func (repository *postgresRepository) SetChapterNumber(context context.Context, chapterID string, number int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.CoreChapter.Table, schema.CoreChapter.ChapterNumber, schema.CoreChapter.UpdatedAt, schema.CoreChapter.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, chapterID, number)
	if err != nil {
		return dberr.Wrap(err, "set_chapter_number")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Chapter")
	}

	return nil
}

// ShiftChapterNumbers moves a tail of the volume by delta positions.
func (repository *postgresRepository) ShiftChapterNumbers(context context.Context, volumeID string, from, delta int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $3 WHERE %s = $1 AND %s >= $2`,
		schema.CoreChapter.Table, schema.CoreChapter.ChapterNumber, schema.CoreChapter.ChapterNumber,
		schema.CoreChapter.VolumeID, schema.CoreChapter.ChapterNumber)

	_, err := postgres.Conn(context, repository.pool).Exec(context, query, volumeID, from, delta)
	return dberr.Wrap(err, "shift_chapter_numbers")
}

// DeleteChapter removes the chapter; versions and unlock records cascade.
func (repository *postgresRepository) DeleteChapter(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.CoreChapter.Table, schema.CoreChapter.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_chapter")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Chapter")
	}

	return nil
}

// # Version Arena

var versionColumns = schema.Select("", schema.CoreChapterVersion.Columns())

func scanVersion(row pgx.Row) (*Version, error) {
	var version Version
	var content []byte

	err := row.Scan(
		&version.ID, &version.ChapterID, &version.Title, &version.Thumbnail, &content,
		&version.Note, &version.VersionName, &version.IsAutoSave, &version.Status, &version.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	version.Content, err = DecodeContent(content)
	if err != nil {
		return nil, fmt.Errorf("postgres: corrupt content for version %s: %w", version.ID, err)
	}

	return &version, nil
}

// CreateVersion inserts a version with its kind-tagged JSONB content.
func (repository *postgresRepository) CreateVersion(context context.Context, version *Version) error {
	content, err := json.Marshal(version.Content)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode version content: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`,
		schema.CoreChapterVersion.Table,
		schema.CoreChapterVersion.ID, schema.CoreChapterVersion.ChapterID, schema.CoreChapterVersion.Title,
		schema.CoreChapterVersion.Thumbnail, schema.CoreChapterVersion.Content, schema.CoreChapterVersion.Note,
		schema.CoreChapterVersion.VersionName, schema.CoreChapterVersion.IsAutoSave, schema.CoreChapterVersion.Status,
		schema.CoreChapterVersion.CreatedAt,
	)

	err = postgres.Conn(context, repository.pool).QueryRow(context, query,
		version.ID, version.ChapterID, version.Title, version.Thumbnail, content,
		version.Note, version.VersionName, version.IsAutoSave, version.Status,
	).Scan(&version.CreatedAt)

	return dberr.Wrap(err, "insert_chapter_version")
}

// FindVersion loads one version including its content.
func (repository *postgresRepository) FindVersion(context context.Context, id string) (*Version, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		versionColumns, schema.CoreChapterVersion.Table, schema.CoreChapterVersion.ID)

	version, err := scanVersion(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Version")
		}
		return nil, dberr.Wrap(err, "find_chapter_version")
	}

	return version, nil
}

// ListVersions returns the arena of a chapter, newest first.
func (repository *postgresRepository) ListVersions(context context.Context, chapterID string) ([]*Version, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC, %s DESC`,
		versionColumns, schema.CoreChapterVersion.Table, schema.CoreChapterVersion.ChapterID,
		schema.CoreChapterVersion.CreatedAt, schema.CoreChapterVersion.ID)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, chapterID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_chapter_versions")
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan version: %w", err)
		}
		versions = append(versions, version)
	}

	return versions, dberr.Wrap(rows.Err(), "list_chapter_versions")
}

// SetVersionStatus flips the status column, the only mutable part of a version.
func (repository *postgresRepository) SetVersionStatus(context context.Context, versionID string, status Status) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.CoreChapterVersion.Table, schema.CoreChapterVersion.Status, schema.CoreChapterVersion.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, versionID, status)
	if err != nil {
		return dberr.Wrap(err, "set_version_status")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Version")
	}

	return nil
}

// DeleteVersions removes a batch of versions.
func (repository *postgresRepository) DeleteVersions(context context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1::uuid[])`,
		schema.CoreChapterVersion.Table, schema.CoreChapterVersion.ID)

	_, err := postgres.Conn(context, repository.pool).Exec(context, query, ids)
	return dberr.Wrap(err, "delete_chapter_versions")
}
