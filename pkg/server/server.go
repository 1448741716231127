package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Nephrolytics-ai/chartscribe/pkg/logging"
	"github.com/Nephrolytics-ai/chartscribe/pkg/model"
	"github.com/Nephrolytics-ai/chartscribe/pkg/pipeline"
	"github.com/Nephrolytics-ai/chartscribe/pkg/store"
)

// Processor is the processing endpoint's backend.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (model.ProcessingResult, error)
}

// Server exposes the processing endpoint and the records CRUD surface.
type Server struct {
	processor Processor
	records   store.RecordStore
	audioDir  string // when non-empty, served read-only at /audio/
}

func New(processor Processor, records store.RecordStore, audioDir string) *Server {
	return &Server{processor: processor, records: records, audioDir: audioDir}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/records", s.handleListRecords)
	mux.HandleFunc("POST /api/records", s.handleCreateRecord)
	mux.HandleFunc("PUT /api/records", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /api/records", s.handleDeleteRecord)
	if s.audioDir != "" {
		mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(s.audioDir))))
	}
	return mux
}

type processResponse struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if strings.TrimSpace(req.AudioURL) == "" || strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "audioUrl and userId are required"})
		return
	}

	result, err := s.processor.Process(r.Context(), req)
	if err != nil {
		logging.NewLogger(r.Context()).Errorf("error processing audio: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Success:    true,
		Transcript: result.Transcript,
		Summary:    result.Summary,
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	var (
		records []model.PatientRecord
		err     error
	)
	if userID := r.URL.Query().Get("userId"); userID != "" {
		records, err = s.records.ListByUser(r.Context(), userID)
	} else {
		records, err = s.records.List(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error fetching records"})
		return
	}
	if records == nil {
		records = []model.PatientRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.PatientRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	rec.ID = ""
	if _, err := s.records.Create(r.Context(), &rec); err != nil {
		logging.NewLogger(r.Context()).Errorf("error creating record: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error creating record"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type updateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PatientAge  *string `json:"patientAge"`
	VisitDate   *string `json:"visitDate"`
	Summary     *string `json:"summary"`
	Transcript  *string `json:"transcript"`
	AudioURL    *string `json:"audioUrl"`
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required"})
		return
	}

	patch := store.RecordPatch{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		PatientAge:  req.PatientAge,
		VisitDate:   req.VisitDate,
		Summary:     req.Summary,
		Transcript:  req.Transcript,
		AudioURL:    req.AudioURL,
	}
	if err := s.records.Update(r.Context(), req.ID, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
			return
		}
		logging.NewLogger(r.Context()).Errorf("error updating record: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error updating record"})
		return
	}

	rec, err := s.records.Get(r.Context(), req.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error updating record"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id is required"})
		return
	}

	if err := s.records.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "error deleting record"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
