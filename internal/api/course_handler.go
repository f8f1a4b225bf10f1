package api

import (
	"net/http"

	"github.com/edushell/portal/internal/domain/course"
	"github.com/edushell/portal/internal/domain/exercise"
)

type coursesPage struct {
	Courses []*course.Course
}

type coursePage struct {
	Course    *course.Course
	Exercises []exercise.Exercise
	Failure   string
}

// GET /courses
func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context())
	if h.handleStoreError(w, r, err, "courses") {
		return
	}

	h.render(w, r, http.StatusOK, "courses", view{
		Title: "Courses",
		Data:  coursesPage{Courses: courses},
	})
}

// GET /courses/{id}
// Exercises are listed in catalog order, not in the order the course names them.
func (h *Handler) showCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.store.GetCourse(ctx, r.PathValue("id"))
	if h.handleStoreError(w, r, err, "course") {
		return
	}

	page := coursePage{Course: c}
	items, err := h.fetcher.FetchAll(ctx)
	if err != nil {
		h.logger.Warn("course exercises unavailable", "course_id", c.ID, "error", err)
		page.Failure = err.Error()
	} else {
		wanted := make(map[string]bool, len(c.ExerciseIDs))
		for _, id := range c.ExerciseIDs {
			wanted[id] = true
		}
		for _, ex := range items {
			if wanted[ex.ID] {
				page.Exercises = append(page.Exercises, ex)
			}
		}
	}

	h.render(w, r, http.StatusOK, "course", view{
		Title: c.Title,
		Data:  page,
	})
}
