package app

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/mindurmind/internal/access"
	"github.com/Spok95/mindurmind/internal/analytics"
	"github.com/Spok95/mindurmind/internal/export"
	"github.com/Spok95/mindurmind/internal/identity"
	"github.com/Spok95/mindurmind/internal/links"
	"github.com/Spok95/mindurmind/internal/models"
)

// Обязательность полей форм — ответственность этого слоя, не ядра.
// Тексты повторяют подсказки исходных форм.

type studentSignIn struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Grade  string `json:"grade"`
	School string `json:"school"`
}

func (s *Server) handleSignInStudent(w http.ResponseWriter, r *http.Request) {
	var req studentSignIn
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Grade) == "" || strings.TrimSpace(req.School) == "" {
		writeJSON(w, http.StatusUnprocessableEntity,
			map[string]string{"error": "Please fill email, name, grade, and school name."})
		return
	}
	student, err := identity.ResolveStudent(r.Context(), s.st,
		req.Email, strings.TrimSpace(req.Name), req.Grade, strings.TrimSpace(req.School))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

type parentSignIn struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleSignInParent(w http.ResponseWriter, r *http.Request) {
	var req parentSignIn
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Enter a parent email."})
		return
	}
	parent, err := identity.ResolveParent(r.Context(), s.st, req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

type schoolSignIn struct {
	Email  string `json:"email"`
	School string `json:"school"`
}

func (s *Server) handleSignInSchool(w http.ResponseWriter, r *http.Request) {
	var req schoolSignIn
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.School) == "" {
		writeJSON(w, http.StatusUnprocessableEntity,
			map[string]string{"error": "Enter a school email and school name."})
		return
	}
	school, err := identity.EnsureSchool(r.Context(), s.st, strings.TrimSpace(req.School))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

type moodForm struct {
	Mood      int    `json:"mood"`
	Intensity int    `json:"intensity"`
	Cause     string `json:"cause"`
	Note      string `json:"note"`
}

func (s *Server) handleRecordMood(w http.ResponseWriter, r *http.Request) {
	var req moodForm
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	entry, err := s.rec.RecordMood(r.Context(), chi.URLParam(r, "studentID"),
		req.Mood, req.Intensity, req.Cause, req.Note)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type sleepForm struct {
	// указатель: отсутствие поля должно падать валидацией, а не нулём часов
	Hours   *float64 `json:"hours"`
	Quality string   `json:"quality"`
}

func (s *Server) handleRecordSleep(w http.ResponseWriter, r *http.Request) {
	var req sleepForm
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if req.Hours == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Enter hours slept."})
		return
	}
	entry, err := s.rec.RecordSleep(r.Context(), chi.URLParam(r, "studentID"), *req.Hours, req.Quality)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type journalForm struct {
	Text      string `json:"text"`
	Gratitude string `json:"gratitude"`
}

func (s *Server) handleRecordJournal(w http.ResponseWriter, r *http.Request) {
	var req journalForm
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	entry, err := s.rec.RecordJournal(r.Context(), chi.URLParam(r, "studentID"), req.Text, req.Gratitude)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleStudentOverview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "studentID")
	view, err := access.BuildStudentOverview(s.st, models.StudentSession(id), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStudentInsights(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "studentID")
	view, err := access.BuildStudentInsights(s.st, models.StudentSession(id), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStudentJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "studentID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := access.BuildStudentJournal(s.st, models.StudentSession(id), id, limit)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStudentLinks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "studentID")
	view, err := access.BuildStudentLinks(s.st, models.StudentSession(id), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	if err := links.Approve(r.Context(), s.st, chi.URLParam(r, "requestID"), studentID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	if err := links.Decline(r.Context(), s.st, chi.URLParam(r, "requestID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

func (s *Server) handleStudentExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "studentID")
	exp, err := access.BuildStudentExport(s.st, models.StudentSession(id), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	f, err := export.StudentWorkbook(exp)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="mindurmind_export.xlsx"`)
	if err := f.Write(w); err != nil {
		s.log.Errorw("выгрузка не записалась", "err", err)
	}
}

type linkForm struct {
	StudentEmail string `json:"studentEmail"`
}

func (s *Server) handleRequestLink(w http.ResponseWriter, r *http.Request) {
	var req linkForm
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if strings.TrimSpace(req.StudentEmail) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Enter the student email."})
		return
	}
	lr, err := links.Request(r.Context(), s.st, chi.URLParam(r, "parentID"), req.StudentEmail)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lr)
}

// handleCancelLink: отмена чужой заявки запрещена; отмена отсутствующей — no-op.
func (s *Server) handleCancelLink(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "parentID")
	requestID := chi.URLParam(r, "requestID")

	for _, p := range links.PendingForParent(s.st, parentID) {
		if p.ID == requestID {
			if err := links.Cancel(r.Context(), s.st, requestID); err != nil {
				s.writeErr(w, r, err)
				return
			}
			break
		}
	}
	// заявка не этого родителя? PendingForParent её не вернёт,
	// и мы молча ничего не делаем — как и при уже исчезнувшей заявке
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParentLinks(w http.ResponseWriter, r *http.Request) {
	view, err := access.BuildParentLinks(s.st, models.ParentSession(chi.URLParam(r, "parentID")))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleParentChildView(w http.ResponseWriter, r *http.Request) {
	sess := models.ParentSession(chi.URLParam(r, "parentID"))
	view, err := access.BuildParentChildView(s.st, sess, chi.URLParam(r, "studentID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSchoolInsights(w http.ResponseWriter, r *http.Request) {
	school := r.URL.Query().Get("school")
	view, err := access.BuildSchoolInsights(s.st, models.SchoolSession(school))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSchoolExport(w http.ResponseWriter, r *http.Request) {
	school := r.URL.Query().Get("school")
	view, err := access.BuildSchoolInsights(s.st, models.SchoolSession(school))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	f, err := export.SchoolWorkbook(school, view)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="school_insights.xlsx"`)
	if err := f.Write(w); err != nil {
		s.log.Errorw("выгрузка не записалась", "err", err)
	}
}

func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	mood, err := strconv.Atoi(r.URL.Query().Get("mood"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "mood must be a number"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": analytics.CopingSuggestion(mood)})
}
