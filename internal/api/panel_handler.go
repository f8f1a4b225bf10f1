package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/exercisesession"
)

const exportVersion = "1.0"

type typeCount struct {
	Label string
	Count int
}

type panelPage struct {
	Source       string
	Total        int
	ByType       []typeCount
	Courses      int
	CatalogError string
}

// GET /panel
func (h *Handler) showPanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.browsingSession(w, r)

	page := panelPage{Source: h.source}
	items, err := h.fetcher.FetchAll(ctx)
	if err != nil {
		page.CatalogError = err.Error()
	}
	page.Total = len(items)
	for _, t := range exercise.Types() {
		page.ByType = append(page.ByType, typeCount{
			Label: t.Label(),
			Count: len(exercise.Apply(items, exercise.FilterBy(t))),
		})
	}

	courses, err := h.store.ListCourses(ctx)
	if h.handleStoreError(w, r, err, "courses") {
		return
	}
	page.Courses = len(courses)

	h.render(w, r, http.StatusOK, "panel", view{
		Title:  "Teacher panel",
		Notice: takeNotice(s),
		Data:   page,
	})
}

// GET /panel/export
func (h *Handler) exportCatalog(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := catalog.Export(r.Context(), h.store, exportVersion, &buf); err != nil {
		h.logger.Error("export catalog", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "failed to export catalog")
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.yaml"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// POST /panel/import
// Accepts a multipart upload in field "catalog" or a raw YAML body.
func (h *Handler) importCatalog(w http.ResponseWriter, r *http.Request) {
	s := h.browsingSession(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	data, err := readCatalogUpload(r)
	if err != nil {
		s.Flash(exercisesession.Notice{Level: exercisesession.LevelError, Text: err.Error()})
		http.Redirect(w, r, "/panel", http.StatusSeeOther)
		return
	}

	doc, err := catalog.Parse(data)
	if err != nil {
		s.Flash(exercisesession.Notice{Level: exercisesession.LevelError, Text: err.Error()})
		http.Redirect(w, r, "/panel", http.StatusSeeOther)
		return
	}

	res, err := catalog.Import(r.Context(), h.store, doc)
	if err != nil {
		h.logger.Error("import catalog", "error", err, "saved_exercises", res.ExercisesSaved)
		s.Flash(exercisesession.Notice{Level: exercisesession.LevelError, Text: "import failed"})
		http.Redirect(w, r, "/panel", http.StatusSeeOther)
		return
	}

	h.logger.Info("catalog imported",
		"exercises", res.ExercisesSaved,
		"courses", res.CoursesSaved,
		"request_id", RequestIDFrom(r.Context()))
	s.Flash(exercisesession.Notice{
		Level: exercisesession.LevelSuccess,
		Text:  fmt.Sprintf("Imported %d exercises and %d courses.", res.ExercisesSaved, res.CoursesSaved),
	})
	http.Redirect(w, r, "/panel", http.StatusSeeOther)
}

func readCatalogUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("catalog")
	switch {
	case err == nil:
		defer file.Close()
		return io.ReadAll(file)
	case errors.Is(err, http.ErrNotMultipart):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, errors.New("catalog upload too large or unreadable")
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, errors.New("catalog document is empty")
		}
		return data, nil
	default:
		return nil, errors.New("missing catalog file")
	}
}
