package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/metamendmarketing/reportbuilderv3/internal/db"
)

// RunItem is one row of GET /v1/runs
type RunItem struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name"`
	Website     string `json:"website,omitempty"`
	MonthLabel  string `json:"month_label"`
	Tier        string `json:"tier"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func toRunItem(run db.Run) RunItem {
	item := RunItem{
		ID:         run.ID.String(),
		ClientName: run.ClientName,
		Website:    run.Website,
		MonthLabel: run.MonthLabel,
		Tier:       run.Tier,
		Status:     run.Status,
		CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.CompletedAt != nil {
		item.CompletedAt = run.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return item
}

// requireStore writes 501 when no archive is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.errorResponse(w, HTTPStatus(ErrArchiveDisabled), ErrArchiveDisabled.Error())
		return false
	}
	return true
}

// pathID parses the {id} path value, writing 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, what+" ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+strings.ToLower(what)+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// handleListRuns returns archived runs with optional filters
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	filters := db.RunFilters{
		ClientName: r.URL.Query().Get("client"),
		Status:     r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	response := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		response = append(response, toRunItem(run))
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  response,
		"count": len(response),
	})
}

// handleGetRun returns one archived run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, ok := s.pathID(w, r, "Run")
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, toRunItem(*run))
}

// handleDeleteRun deletes a run and its artifacts
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, ok := s.pathID(w, r, "Run")
	if !ok {
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		status := HTTPStatus(err)
		if status == http.StatusNotFound {
			s.errorResponse(w, status, "Run not found")
			return
		}
		s.errorResponse(w, status, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListRunSteps returns the recorded pipeline steps of a run
func (s *Server) handleListRunSteps(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, ok := s.pathID(w, r, "Run")
	if !ok {
		return
	}

	steps, err := s.store.ListRunSteps(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if steps == nil {
		steps = []db.RunStep{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id": runID.String(),
		"steps":  steps,
		"count":  len(steps),
	})
}

// handleRunArtifacts returns artifacts for a specific run
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, ok := s.pathID(w, r, "Run")
	if !ok {
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifacts == nil {
		artifacts = []db.ArtifactSummary{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":    runID.String(),
		"artifacts": artifacts,
		"count":     len(artifacts),
	})
}

// handleRunEML downloads the archived .eml draft of a run
func (s *Server) handleRunEML(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	runID, ok := s.pathID(w, r, "Run")
	if !ok {
		return
	}

	eml, err := s.store.GetTextArtifact(r.Context(), runID, db.StepEmailEML)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if eml == "" {
		s.errorResponse(w, http.StatusNotFound, ".eml not found for this run")
		return
	}

	w.Header().Set("Content-Type", "message/rfc822")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=monthly_seo_update_%s.eml", runID.String()[:8]))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(eml))
}

// handleArtifact returns an artifact by ID
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	artifactID, ok := s.pathID(w, r, "Artifact")
	if !ok {
		return
	}

	artifact, err := s.store.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, artifact)
}
