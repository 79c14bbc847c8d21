package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/resumetailor/internal/database"
	"github.com/resumetailor/pkg/models"
)

// Postgres is the database-backed Store
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to url and brings the schema up to date
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	db, err := database.NewDB(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection. The schema must already exist.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const applicationColumns = `id, company_name, job_role, job_link, date_applied, status, job_description, resume_path`

func (p *Postgres) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := validateApplication(app); err != nil {
		return err
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO applications (company_name, job_role, job_link, date_applied, status, job_description, resume_path)
		VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()), $5, $6, $7)
		RETURNING id, date_applied`,
		app.CompanyName, app.JobRole, app.JobLink, nullTime(app), app.Status, app.JobDescription, app.ResumePath,
	).Scan(&app.ID, &app.DateApplied)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func nullTime(app *models.Application) interface{} {
	if app.DateApplied.IsZero() {
		return nil
	}
	return app.DateApplied
}

func (p *Postgres) ListApplications(ctx context.Context) ([]models.Application, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY date_applied DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var app models.Application
		if err := scanApplication(rows, &app); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

func (p *Postgres) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)

	var app models.Application
	if err := scanApplication(row, &app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &app, nil
}

func (p *Postgres) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	res, err := p.db.ExecContext(ctx, `UPDATE applications SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	return expectOne(res, fmt.Sprintf("application %d", id))
}

func (p *Postgres) DeleteApplication(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return expectOne(res, fmt.Sprintf("application %d", id))
}

func (p *Postgres) CreateResume(ctx context.Context, r *models.SavedResume) error {
	if err := validateResume(r); err != nil {
		return err
	}
	sections, err := marshalSections(r.TailoredSections)
	if err != nil {
		return err
	}

	err = p.db.QueryRowContext(ctx, `
		INSERT INTO saved_resumes (filename, original_text, tailored_text, tailored_sections, initial_score, projected_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		r.Filename, r.OriginalText, r.TailoredText, sections, r.InitialScore, r.ProjectedScore,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}
	return nil
}

func (p *Postgres) GetResume(ctx context.Context, id int64) (*models.SavedResume, error) {
	var r models.SavedResume
	var sections []byte

	err := p.db.QueryRowContext(ctx, `
		SELECT id, filename, original_text, tailored_text, tailored_sections, initial_score, projected_score, created_at, updated_at
		FROM saved_resumes WHERE id = $1`, id,
	).Scan(&r.ID, &r.Filename, &r.OriginalText, &r.TailoredText, &sections, &r.InitialScore, &r.ProjectedScore, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resume %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	if err := json.Unmarshal(sections, &r.TailoredSections); err != nil {
		return nil, fmt.Errorf("failed to decode tailored sections of resume %d: %w", id, err)
	}
	return &r, nil
}

func (p *Postgres) UpdateResume(ctx context.Context, r *models.SavedResume) error {
	sections, err := marshalSections(r.TailoredSections)
	if err != nil {
		return err
	}

	err = p.db.QueryRowContext(ctx, `
		UPDATE saved_resumes SET tailored_text = $1, tailored_sections = $2, updated_at = now()
		WHERE id = $3
		RETURNING filename, original_text, initial_score, projected_score, created_at, updated_at`,
		r.TailoredText, sections, r.ID,
	).Scan(&r.Filename, &r.OriginalText, &r.InitialScore, &r.ProjectedScore, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("resume %d: %w", r.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update resume: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(s scanner, app *models.Application) error {
	err := s.Scan(&app.ID, &app.CompanyName, &app.JobRole, &app.JobLink, &app.DateApplied,
		&app.Status, &app.JobDescription, &app.ResumePath)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to scan application: %w", err)
	}
	return err
}

// marshalSections returns a string so lib/pq sends it as text, not bytea
func marshalSections(sections []models.SectionAnalysis) (string, error) {
	if sections == nil {
		sections = []models.SectionAnalysis{}
	}
	data, err := json.Marshal(sections)
	if err != nil {
		return "", fmt.Errorf("failed to encode tailored sections: %w", err)
	}
	return string(data), nil
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
