package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/corpus"
	"github.com/hyperjump/jobscout/internal/keyword"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/pipeline"
	"github.com/hyperjump/jobscout/internal/resumes"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type answerResponse struct {
	Answer string `json:"answer,omitempty"`
	// Rendered is the answer followed by the source list, as shown to users.
	Rendered string           `json:"rendered,omitempty"`
	Sources  []*models.Source `json:"sources"`
	Stage    pipeline.Stage   `json:"stage,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.components.Config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	req := pipeline.Request{
		JobTitle:  r.FormValue("job_title"),
		Locations: r.FormValue("locations"),
		Question:  r.FormValue("question"),
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	file, header, err := r.FormFile("resume")
	switch {
	case err == nil:
		defer file.Close()
		path, err := resumes.Save(s.components.Config.Storage.ResumesDir, header.Filename, file, s.now())
		if err != nil {
			s.logger.Error("failed to store resume", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "failed to store resume")
			return
		}
		req.ResumePath = path
	case !errors.Is(err, http.ErrMissingFile):
		s.respondError(w, http.StatusBadRequest, "invalid resume upload")
		return
	}

	s.logger.Debug("answer request",
		zap.String("job_title", req.JobTitle),
		zap.String("locations", req.Locations),
		zap.Bool("resume", req.ResumePath != ""))
	res, err := s.components.Session.Run(r.Context(), req)
	if err != nil {
		resp := answerResponse{Sources: []*models.Source{}, Error: pipeline.ErrorMessage(err)}
		status := http.StatusInternalServerError
		var se *pipeline.StageError
		if errors.As(err, &se) {
			resp.Stage = se.Stage
			if se.Stage == pipeline.StageResume {
				status = http.StatusUnprocessableEntity
			}
		}
		s.logger.Error("answer failed", zap.Error(err))
		s.respondJSON(w, status, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, answerResponse{Answer: res.Answer, Rendered: res.Render(), Sources: res.Sources})
}

func (s *Server) handleListPostings(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := s.pageParams(w, r)
	if !ok {
		return
	}
	postings, err := s.components.Store.ReadAll(r.Context())
	if err != nil {
		s.logger.Error("list postings failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"total":    len(postings),
		"offset":   offset,
		"postings": corpus.Page(postings, offset, limit),
	})
}

func (s *Server) handleSearchPostings(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	_, limit, ok := s.pageParams(w, r)
	if !ok {
		return
	}
	opts := &keyword.SearchOptions{Highlight: "html"}
	if r.URL.Query().Get("fuzzy") == "true" {
		opts.Fuzziness = 1
	}
	results, err := s.components.SearchPostings(r.Context(), q, limit, opts)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

func (s *Server) handleRefreshIndex(w http.ResponseWriter, r *http.Request) {
	status, err := s.components.Session.RefreshIndex(r.Context())
	if err != nil {
		s.logger.Error("index refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, pipeline.ErrorMessage(&pipeline.StageError{Stage: pipeline.StageIndex, Cause: err}))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.components.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) pageParams(w http.ResponseWriter, r *http.Request) (offset, limit int, ok bool) {
	limit = defaultPageLimit
	for name, dst := range map[string]*int{"offset": &offset, "limit": &limit} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid "+name)
			return 0, 0, false
		}
		*dst = n
	}
	return offset, min(limit, maxPageLimit), true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
