package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/pkg/models"
)

func idParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (s *Server) requireStore() error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "record store is not configured")
	}
	return nil
}

func (s *Server) listApplications(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	apps, err := s.store.ListApplications(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, apps)
}

func (s *Server) createApplication(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	var body struct {
		CompanyName    string                   `json:"company_name"`
		JobRole        string                   `json:"job_role"`
		JobLink        *string                  `json:"job_link"`
		DateApplied    *time.Time               `json:"date_applied"`
		Status         models.ApplicationStatus `json:"status"`
		JobDescription *string                  `json:"job_description"`
		ResumePath     *string                  `json:"resume_path"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	app := &models.Application{
		CompanyName:    body.CompanyName,
		JobRole:        body.JobRole,
		JobLink:        body.JobLink,
		Status:         body.Status,
		JobDescription: body.JobDescription,
		ResumePath:     body.ResumePath,
	}
	if body.DateApplied != nil {
		app.DateApplied = *body.DateApplied
	}
	if err := s.store.CreateApplication(c.Request().Context(), app); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

func (s *Server) updateApplicationStatus(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	if err := s.store.UpdateApplicationStatus(ctx, id, body.Status); err != nil {
		return httpError(c, err)
	}
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

func (s *Server) deleteApplication(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteApplication(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) getResume(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	r, err := s.store.GetResume(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// updateResume replaces a saved resume's sections. The tailored text is
// merged again on the server so it always matches the sections.
func (s *Server) updateResume(c echo.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var body struct {
		TailoredSections []models.SectionAnalysis `json:"tailored_sections"`
	}
	if err := c.Bind(&body); err != nil || body.TailoredSections == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tailored_sections is required")
	}
	if err := overlay.ValidateSections(body.TailoredSections); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := overlay.CheckDocument(body.TailoredSections); err != nil {
		return httpError(c, err)
	}

	r := &models.SavedResume{
		ID:               id,
		TailoredText:     overlay.MergeDocument(body.TailoredSections),
		TailoredSections: body.TailoredSections,
	}
	if err := s.store.UpdateResume(c.Request().Context(), r); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) jobDescription(c echo.Context) error {
	if s.jobs == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "job description fetching is disabled")
	}
	url := c.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}
	text, err := s.jobs.Fetch(c.Request().Context(), url)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"job_description": text})
}

func (s *Server) download(c echo.Context) error {
	if s.exporter == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "export is not configured")
	}
	name := c.Param("name")
	path, err := s.exporter.Open(name)
	if err != nil {
		return httpError(c, err)
	}
	if filepath.Ext(name) == ".html" {
		return c.Inline(path, name)
	}
	return c.Attachment(path, name)
}
