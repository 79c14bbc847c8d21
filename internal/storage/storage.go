// Package storage persists job applications and saved tailored resumes.
package storage

import (
	"context"
	"errors"

	"github.com/resumetailor/pkg/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidStatus = errors.New("invalid application status")
	ErrInvalidRecord = errors.New("invalid record")
)

// ApplicationStore tracks job applications
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	ListApplications(ctx context.Context) ([]models.Application, error)
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
	DeleteApplication(ctx context.Context, id int64) error
}

// ResumeStore keeps finalized tailoring results
type ResumeStore interface {
	CreateResume(ctx context.Context, r *models.SavedResume) error
	GetResume(ctx context.Context, id int64) (*models.SavedResume, error)
	// UpdateResume replaces the tailored text and sections of a saved resume
	UpdateResume(ctx context.Context, r *models.SavedResume) error
}

// Store is both record stores behind one handle
type Store interface {
	ApplicationStore
	ResumeStore
	Close() error
}

func validateApplication(app *models.Application) error {
	if app.CompanyName == "" || app.JobRole == "" {
		return errors.Join(ErrInvalidRecord, errors.New("company_name and job_role are required"))
	}
	if app.Status == "" {
		app.Status = models.StatusApplied
	}
	if !app.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func validateResume(r *models.SavedResume) error {
	if r.Filename == "" {
		return errors.Join(ErrInvalidRecord, errors.New("filename is required"))
	}
	return nil
}
