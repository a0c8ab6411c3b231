package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Winder2006/COBALT/internal/discovery"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/service"
	"github.com/Winder2006/COBALT/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type analyzeRequest struct {
	BRRTS string `json:"brrts"`
}

type analyzeResponse struct {
	*models.DiscoveryResult
	DocumentsAvailable int `json:"documents_available"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := strings.TrimSpace(req.BRRTS)
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Missing BRRTS activity ID.")
		return
	}
	s.logger.Debug("analyze request", zap.String("brrts", id))
	res, err := s.svc.Analyze(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, analyzeResponse{DiscoveryResult: res, DocumentsAvailable: len(res.Documents)})
}

type documentsRequest struct {
	DSN string `json:"dsn"`
}

type documentsResponse struct {
	*service.DocumentList
	ExtractionAvailable bool `json:"extraction_available"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dsn := strings.TrimSpace(req.DSN)
	if dsn == "" {
		s.respondError(w, http.StatusBadRequest, "Missing DSN.")
		return
	}
	list, err := s.svc.Documents(r.Context(), dsn)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, documentsResponse{DocumentList: list, ExtractionAvailable: true})
}

type addDocumentRequest struct {
	DocSeqNo string `json:"docSeqNo"`
	URL      string `json:"url"`
	DSN      string `json:"dsn"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc, err := s.svc.AddDocument(req.DocSeqNo, req.URL)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"document": doc, "success": true})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req service.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("extract request", zap.String("session", req.SessionID), zap.Int("documents", len(req.Documents)))
	resp, err := s.svc.Extract(r.Context(), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req service.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.svc.Search(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("cleanup request", zap.String("session", id))
	if err := s.svc.Cleanup(id); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "deleted"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"sessions":     st.Sessions,
		"cached_texts": st.CachedTexts,
	})
}

// respondDomainError maps service and package sentinels to HTTP statuses.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, discovery.ErrInvalidIdentifier),
		errors.Is(err, discovery.ErrInvalidDocument),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, service.ErrNoDocuments),
		errors.Is(err, service.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnknownSession):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
