package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumetailor/pkg/models"
)

// storeFactories returns every Store implementation available in this
// environment. Postgres runs only when TAILOR_TEST_DATABASE_URL is set.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	factories := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
	}

	if url := os.Getenv("TAILOR_TEST_DATABASE_URL"); url != "" {
		factories["postgres"] = func(t *testing.T) Store {
			ctx := context.Background()
			pg, err := OpenPostgres(ctx, url)
			require.NoError(t, err)
			_, err = pg.db.ExecContext(ctx, `TRUNCATE applications, saved_resumes RESTART IDENTITY`)
			require.NoError(t, err)
			t.Cleanup(func() { pg.Close() })
			return pg
		}
	}
	return factories
}

func TestApplications(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			older := &models.Application{
				CompanyName: "Acme",
				JobRole:     "Backend Engineer",
				DateApplied: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			}
			require.NoError(t, store.CreateApplication(ctx, older))
			assert.NotZero(t, older.ID)
			assert.Equal(t, models.StatusApplied, older.Status)

			newer := &models.Application{
				CompanyName: "Globex",
				JobRole:     "SRE",
				JobLink:     models.StringPtr("https://globex.example/jobs/1"),
				Status:      models.StatusInterview,
				DateApplied: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
			}
			require.NoError(t, store.CreateApplication(ctx, newer))

			list, err := store.ListApplications(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "Globex", list[0].CompanyName, "newest first")
			require.NotNil(t, list[0].JobLink)
			assert.Equal(t, "https://globex.example/jobs/1", *list[0].JobLink)
			assert.Nil(t, list[1].JobLink)

			require.NoError(t, store.UpdateApplicationStatus(ctx, older.ID, models.StatusOffered))
			got, err := store.GetApplication(ctx, older.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusOffered, got.Status)

			assert.ErrorIs(t, store.UpdateApplicationStatus(ctx, older.ID, "Ghosted"), ErrInvalidStatus)
			assert.ErrorIs(t, store.UpdateApplicationStatus(ctx, 9999, models.StatusRejected), ErrNotFound)

			require.NoError(t, store.DeleteApplication(ctx, older.ID))
			_, err = store.GetApplication(ctx, older.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.DeleteApplication(ctx, older.ID), ErrNotFound)
		})
	}
}

func TestApplications_Validation(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()

			assert.ErrorIs(t, store.CreateApplication(ctx, &models.Application{JobRole: "x"}), ErrInvalidRecord)
			assert.ErrorIs(t, store.CreateApplication(ctx, &models.Application{
				CompanyName: "a", JobRole: "b", Status: "Maybe",
			}), ErrInvalidStatus)
		})
	}
}

func TestResumes(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := open(t)

			sections := []models.SectionAnalysis{{
				SectionName:  "Experience",
				OriginalText: models.StringPtr("Wrote Python."),
				Gaps:         []string{"Go"},
				Edits:        []models.EditRecord{{TargetText: "Python", NewContent: "Go", Action: models.ActionRewrite}},
			}}
			r := &models.SavedResume{
				Filename:         "cv.txt",
				OriginalText:     "Wrote Python.",
				TailoredText:     "Wrote Go.",
				TailoredSections: sections,
				InitialScore:     40,
				ProjectedScore:   75,
			}
			require.NoError(t, store.CreateResume(ctx, r))
			assert.NotZero(t, r.ID)

			// Mutating the caller's copy must not leak into the store
			sections[0].Edits[0].NewContent = "Rust"

			got, err := store.GetResume(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "Go", got.TailoredSections[0].Edits[0].NewContent)
			assert.Equal(t, 75, got.ProjectedScore)

			update := &models.SavedResume{
				ID:           r.ID,
				TailoredText: "Wrote Go services.",
				TailoredSections: []models.SectionAnalysis{{
					SectionName:  "Experience",
					OriginalText: models.StringPtr("Wrote Python."),
					Gaps:         []string{},
					Edits:        []models.EditRecord{{TargetText: "Python", NewContent: "Go services", Action: models.ActionRewrite}},
				}},
			}
			require.NoError(t, store.UpdateResume(ctx, update))
			assert.Equal(t, "cv.txt", update.Filename, "unchanged fields are returned")

			got, err = store.GetResume(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, "Wrote Go services.", got.TailoredText)
			if diff := cmp.Diff(update.TailoredSections, got.TailoredSections, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("sections mismatch (-want +got):\n%s", diff)
			}

			_, err = store.GetResume(ctx, 424242)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.UpdateResume(ctx, &models.SavedResume{ID: 424242}), ErrNotFound)
			assert.ErrorIs(t, store.CreateResume(ctx, &models.SavedResume{}), ErrInvalidRecord)
		})
	}
}
