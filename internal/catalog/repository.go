package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateClip(ctx context.Context, clip *SourceClip) error
	GetClip(ctx context.Context, id string) (*SourceClip, error)
	GetClipByPath(ctx context.Context, path string) (*SourceClip, error)
	ListClips(ctx context.Context) ([]*SourceClip, error)
	CountClips(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	GetActiveJobByPath(ctx context.Context, jobType, path string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	SetJobClip(ctx context.Context, id, clipID string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const clipColumns = `id, path, filename, duration_seconds, width, height, resolution, codec, frame_rate, created_at`

func (r *SQLiteRepository) CreateClip(ctx context.Context, c *SourceClip) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO source_clips (`+clipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Path, c.Filename, c.DurationSeconds, c.Width, c.Height, c.Resolution, c.Codec, c.FrameRate,
		c.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetClip(ctx context.Context, id string) (*SourceClip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM source_clips WHERE id = ?`, id)
	return scanClip(row)
}

func (r *SQLiteRepository) GetClipByPath(ctx context.Context, path string) (*SourceClip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM source_clips WHERE path = ?`, path)
	return scanClip(row)
}

// ListClips returns clips in import order.
func (r *SQLiteRepository) ListClips(ctx context.Context) ([]*SourceClip, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clipColumns+` FROM source_clips ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []*SourceClip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) CountClips(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM source_clips").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClip(s scanner) (*SourceClip, error) {
	var c SourceClip
	var createdAt string
	err := s.Scan(&c.ID, &c.Path, &c.Filename, &c.DurationSeconds, &c.Width, &c.Height,
		&c.Resolution, &c.Codec, &c.FrameRate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

const jobColumns = `id, type, status, path, clip_id, progress, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.Path), nullString(j.ClipID),
		j.Progress, nullString(j.Error),
		j.CreatedAt.UTC().Format(time.RFC3339), j.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// GetActiveJobByPath finds a pending or running job of the given type for
// path, if any.
func (r *SQLiteRepository) GetActiveJobByPath(ctx context.Context, jobType, path string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE type = ? AND path = ? AND status IN ('pending', 'running')
		ORDER BY created_at ASC LIMIT 1
	`, jobType, path)
	return scanJob(row)
}

func scanJob(s scanner) (*Job, error) {
	var j Job
	var path, clipID, errMsg sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&j.ID, &j.Type, &j.Status, &path, &clipID, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Path = path.String
	j.ClipID = clipID.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ListPendingJobs returns pending jobs oldest first.
func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), now(), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, now(), id)
	return err
}

func (r *SQLiteRepository) SetJobClip(ctx context.Context, id, clipID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET clip_id = ?, updated_at = ? WHERE id = ?
	`, clipID, now(), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
