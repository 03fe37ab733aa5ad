package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Spok95/mindurmind/internal/access"
	"github.com/Spok95/mindurmind/internal/ctxutil"
	"github.com/Spok95/mindurmind/internal/identity"
	"github.com/Spok95/mindurmind/internal/ingest"
	"github.com/Spok95/mindurmind/internal/links"
	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/observability"
	"github.com/Spok95/mindurmind/internal/store"
)

// Server — презентационный слой поверх ядра: вход → Identity Resolver,
// формы → Log Ingestion, действия со связями → Linking State Machine,
// представления → Aggregation Engine через Visibility Gate.
// Аутентификации нет: личность берётся из пути запроса, как и в сессии
// исходного одностраничника (доверительное допущение схемы).
type Server struct {
	st  *store.Store
	rec *ingest.Recorder
	log *zap.SugaredLogger
}

func NewServer(st *store.Store, rec *ingest.Recorder, log *zap.SugaredLogger) *Server {
	return &Server{st: st, rec: rec, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 800*time.Millisecond)
		defer cancel()
		if err := s.st.Ping(ctx); err != nil {
			http.Error(w, "store not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/signin/student", s.handleSignInStudent)
		r.Post("/signin/parent", s.handleSignInParent)
		r.Post("/signin/school", s.handleSignInSchool)

		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Use(tagActor(models.RoleStudent, "studentID"))
			r.Post("/mood", s.handleRecordMood)
			r.Post("/sleep", s.handleRecordSleep)
			r.Post("/journal", s.handleRecordJournal)
			r.Get("/overview", s.handleStudentOverview)
			r.Get("/insights", s.handleStudentInsights)
			r.Get("/journal", s.handleStudentJournal)
			r.Get("/links", s.handleStudentLinks)
			r.Post("/links/{requestID}/approve", s.handleApprove)
			r.Post("/links/{requestID}/decline", s.handleDecline)
			r.Get("/export.xlsx", s.handleStudentExport)
		})

		r.Route("/parents/{parentID}", func(r chi.Router) {
			r.Use(tagActor(models.RoleParent, "parentID"))
			r.Get("/links", s.handleParentLinks)
			r.Post("/links", s.handleRequestLink)
			r.Delete("/links/{requestID}", s.handleCancelLink)
			r.Get("/children/{studentID}/view", s.handleParentChildView)
		})

		r.Get("/schools/insights", s.handleSchoolInsights)
		r.Get("/schools/export.xlsx", s.handleSchoolExport)

		r.Get("/suggestion", s.handleSuggestion)
	})

	return r
}

// tagActor помечает контекст запроса ролью и идентификатором из пути —
// теги уходят в sentry вместе с непредвиденными ошибками.
func tagActor(role models.Role, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxutil.WithRole(r.Context(), string(role))
			ctx = ctxutil.WithActorID(ctx, chi.URLParam(r, param))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("http", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr переводит таксономию ошибок ядра в HTTP-коды.
// Всё непредвиденное уходит в sentry и наружу как 500 без деталей.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ingest.ErrValidation), errors.Is(err, identity.ErrEmptyEmail):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, links.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, links.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, access.ErrForbiddenScope):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		observability.CaptureErr(r.Context(), err)
		s.log.Errorw("внутренняя ошибка", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
