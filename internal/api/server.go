// Package api serves the trainer over HTTP for browser front-ends.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/memory"
	"github.com/abhisek/flagz/internal/progress"
	"github.com/abhisek/flagz/internal/recommend"
	"github.com/abhisek/flagz/internal/roster"
)

// Trainer is the part of memory.Trainer the API exposes.
type Trainer interface {
	CategoryViews() []memory.CategoryView
	Category(key string) (memory.CategoryView, error)
	Recommendation(excluding string) recommend.Pick
	Flag(code string) (roster.Country, progress.ItemProgress, error)
	MarkFlagLearned(code string) (bool, error)
	History() []progress.HistoryEntry
	ResetNow(ctx context.Context) error
}

// Server holds the handlers.
type Server struct {
	trainer  Trainer
	loc      memory.Localizer
	catOf    func(code string) (string, bool)
	log      *zap.Logger
	validate *validator.Validate
}

// New creates a server. catOf maps a flag code to its category key.
func New(trainer Trainer, loc memory.Localizer, catOf func(code string) (string, bool), log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{trainer: trainer, loc: loc, catOf: catOf, log: log, validate: validator.New()}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.listCategories)
		r.Get("/categories/{key}", s.getCategory)
		r.Get("/recommendation", s.getRecommendation)
		r.Get("/items/{code}", s.getItem)
		r.Post("/items/{code}/learned", s.markLearned)
		r.Get("/history", s.listHistory)
		r.Post("/reset", s.reset)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) categoryResponse(v memory.CategoryView) CategoryResponse {
	return CategoryResponse{
		Key:         v.Category.Key,
		Title:       v.Title,
		Continent:   string(v.Category.ContinentKey),
		GroupNumber: v.Category.GroupNumber,
		TotalGroups: v.Category.TotalGroups,
		Members:     v.Category.MemberCodes,
		Progress:    v.Progress,
		Recommended: v.Recommended,
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	views := s.trainer.CategoryViews()
	out := make([]CategoryResponse, 0, len(views))
	for _, v := range views {
		out = append(out, s.categoryResponse(v))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	v, err := s.trainer.Category(chi.URLParam(r, "key"))
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.categoryResponse(v))
}

func (s *Server) getRecommendation(w http.ResponseWriter, r *http.Request) {
	pick := s.trainer.Recommendation(r.URL.Query().Get("exclude"))
	resp := RecommendationResponse{Pick: pick}
	if pick.Found() {
		if v, err := s.trainer.Category(pick.Key); err == nil {
			resp.Title = v.Title
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	c, ip, err := s.trainer.Flag(code)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	resp := ItemResponse{
		Code:      c.Code,
		Name:      s.loc.CountryName(c),
		Continent: string(c.Continent),
		Progress:  ip,
	}
	if s.catOf != nil {
		resp.Category, _ = s.catOf(c.Code)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) markLearned(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	first, err := s.trainer.MarkFlagLearned(code)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, MarkLearnedResponse{Code: code, FirstTime: first})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.trainer.History()
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse(e))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "confirm must be true")
		return
	}

	if err := s.trainer.ResetNow(r.Context()); err != nil {
		s.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
