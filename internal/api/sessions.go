package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/resumetailor/internal/documents"
	"github.com/resumetailor/internal/export"
	"github.com/resumetailor/internal/review"
	"github.com/resumetailor/pkg/models"
)

// SessionResponse is the full state of a review session
type SessionResponse struct {
	ID             string               `json:"session_id"`
	DocumentHandle string               `json:"document_handle"`
	Filename       string               `json:"filename"`
	InitialScore   int                  `json:"initial_score"`
	ProjectedScore int                  `json:"projected_score"`
	Sections       []review.SectionView `json:"sections"`
	Conflicts      int                  `json:"unresolved_conflicts"`
	Preview        string               `json:"preview"`
	CreatedAt      time.Time            `json:"created_at"`
}

func sessionResponse(sess *review.Session) SessionResponse {
	return SessionResponse{
		ID:             sess.ID,
		DocumentHandle: sess.DocumentHandle,
		Filename:       sess.Filename,
		InitialScore:   sess.InitialScore,
		ProjectedScore: sess.ProjectedScore,
		Sections:       sess.View(),
		Conflicts:      len(sess.Conflicts()),
		Preview:        sess.Preview(),
		CreatedAt:      sess.CreatedAt,
	}
}

// ApplyResponse is returned once a session has been exported
type ApplyResponse struct {
	Artifact *export.Artifact     `json:"artifact"`
	Text     string               `json:"tailored_text"`
	Dropped  []review.DroppedEdit `json:"dropped_edits,omitempty"`
}

// analyze accepts either a "resume" file upload (plain text or PDF) or a
// "resume_text" field, plus a "job_description" field or a "job_url" to fetch it from.
func (s *Server) analyze(c echo.Context) error {
	if s.analyzer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "analysis provider is not configured")
	}

	filename, text, err := readResume(c)
	if err != nil {
		return err
	}
	if s.secrets != nil {
		if err := s.secrets.Check(text); err != nil {
			return httpError(c, err)
		}
	}

	jd := strings.TrimSpace(c.FormValue("job_description"))
	if jd == "" {
		if jobURL := c.FormValue("job_url"); jobURL != "" && s.jobs != nil {
			if jd, err = s.jobs.Fetch(c.Request().Context(), jobURL); err != nil {
				return httpError(c, err)
			}
		}
	}
	if jd == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "job_description is required")
	}

	var resp SessionResponse
	err = s.guard("analyze", c.RealIP(), func() error {
		handle, err := s.documents.Save(filename, text)
		if err != nil {
			return httpError(c, err)
		}
		doc, err := s.documents.Load(handle)
		if err != nil {
			return httpError(c, err)
		}

		result, err := s.analyzer.Analyze(c.Request().Context(), doc.Text, jd)
		if err != nil {
			log.Warn().Err(err).Str("handle", handle).Msg("Analysis failed")
			if derr := s.documents.Delete(handle); derr != nil {
				log.Warn().Err(derr).Str("handle", handle).Msg("Failed to remove document of failed analysis")
			}
			return httpError(c, err)
		}
		result.DocumentHandle = handle

		sess := review.NewSession(*result)
		sess.Filename = doc.Filename
		sess.OriginalText = doc.Text
		s.sessions.Add(sess)

		resp = sessionResponse(sess)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("session_id", resp.ID).Int("sections", len(resp.Sections)).Msg("Review session started")
	return c.JSON(http.StatusOK, resp)
}

func readResume(c echo.Context) (filename, text string, err error) {
	if fh, ferr := c.FormFile("resume"); ferr == nil {
		f, err := fh.Open()
		if err != nil {
			return "", "", echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded resume")
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, documents.MaxUploadSize+1))
		if err != nil {
			return "", "", echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded resume")
		}
		text, err := documents.ExtractText(fh.Filename, data)
		if err != nil {
			return "", "", httpError(c, err)
		}
		return fh.Filename, text, nil
	}

	text = c.FormValue("resume_text")
	if strings.TrimSpace(text) == "" {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "resume file or resume_text is required")
	}
	filename = c.FormValue("filename")
	if filename == "" {
		filename = "resume.txt"
	}
	return filename, text, nil
}

func (s *Server) getSession(c echo.Context) error {
	var resp SessionResponse
	err := s.sessions.With(c.Param("id"), func(sess *review.Session) error {
		resp = sessionResponse(sess)
		return nil
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.sessions.With(id, func(*review.Session) error { return nil }); err != nil {
		return httpError(c, err)
	}
	s.sessions.Remove(id)
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func editParams(c echo.Context) (section string, edit int, err error) {
	section = c.Param("section")
	edit, err = strconv.Atoi(c.Param("edit"))
	if err != nil {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "edit must be an integer index")
	}
	return section, edit, nil
}

func (s *Server) updateEdit(c echo.Context) error {
	section, edit, err := editParams(c)
	if err != nil {
		return err
	}
	var body struct {
		NewContent *string `json:"new_content"`
	}
	if err := c.Bind(&body); err != nil || body.NewContent == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "new_content is required")
	}

	var resp SessionResponse
	err = s.sessions.With(c.Param("id"), func(sess *review.Session) error {
		if err := sess.UpdateEdit(section, edit, *body.NewContent); err != nil {
			return err
		}
		resp = sessionResponse(sess)
		return nil
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) resolveConflict(c echo.Context) error {
	section, edit, err := editParams(c)
	if err != nil {
		return err
	}
	var body struct {
		Choice        review.Choice `json:"choice"`
		MergedContent string        `json:"merged_content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !body.Choice.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("choice must be one of %s, %s, %s",
			review.KeepAccepted, review.KeepRejected, review.MergeManually))
	}

	var resp SessionResponse
	err = s.sessions.With(c.Param("id"), func(sess *review.Session) error {
		if err := sess.ResolveConflict(section, edit, body.Choice, body.MergedContent); err != nil {
			return err
		}
		resp = sessionResponse(sess)
		return nil
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// sessionInfo is what save and export need from a session once it is finalized
type sessionInfo struct {
	DocumentHandle string
	Filename       string
	OriginalText   string
	InitialScore   int
	ProjectedScore int
}

// finalize runs Finalize under the session lock
func (s *Server) finalize(c echo.Context, strict bool) (*review.Outcome, sessionInfo, error) {
	var outcome *review.Outcome
	var info sessionInfo
	err := s.sessions.With(c.Param("id"), func(sess *review.Session) error {
		var err error
		if outcome, err = sess.Finalize(strict); err != nil {
			return err
		}
		info = sessionInfo{
			DocumentHandle: sess.DocumentHandle,
			Filename:       sess.Filename,
			OriginalText:   sess.OriginalText,
			InitialScore:   sess.InitialScore,
			ProjectedScore: sess.ProjectedScore,
		}
		return nil
	})
	if err != nil {
		return nil, info, httpError(c, err)
	}
	return outcome, info, nil
}

func strictParam(c echo.Context) bool {
	strict, _ := strconv.ParseBool(c.QueryParam("strict"))
	return strict
}

func (s *Server) applySession(c echo.Context) error {
	if s.exporter == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "export is not configured")
	}

	var resp ApplyResponse
	err := s.guard("apply", c.Param("id"), func() error {
		outcome, sess, err := s.finalize(c, strictParam(c))
		if err != nil {
			return err
		}

		artifact, err := s.exporter.Export(c.Request().Context(), sess.DocumentHandle, outcome.Sections)
		if err != nil {
			return httpError(c, err)
		}
		resp = ApplyResponse{Artifact: artifact, Text: artifact.Text, Dropped: outcome.Dropped}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) saveSession(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "record store is not configured")
	}

	var record *models.SavedResume
	err := s.guard("save", c.Param("id"), func() error {
		outcome, sess, err := s.finalize(c, strictParam(c))
		if err != nil {
			return err
		}

		record = &models.SavedResume{
			Filename:         sess.Filename,
			OriginalText:     sess.OriginalText,
			TailoredText:     outcome.Text,
			TailoredSections: outcome.Sections,
			InitialScore:     sess.InitialScore,
			ProjectedScore:   sess.ProjectedScore,
		}
		if err := s.store.CreateResume(c.Request().Context(), record); err != nil {
			return httpError(c, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("session_id", c.Param("id")).Int64("resume_id", record.ID).Msg("Tailored resume saved")
	return c.JSON(http.StatusCreated, record)
}
