// Package agents serves the agent CRUD API and the registration surface.
package agents

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mirrorme/mirrorme/internal/store"
)

// API is the store-backed agent CRUD surface under /api/agents-api.
type API struct {
	Store *store.SQLiteStore
}

// NewAPI creates the CRUD handler.
func NewAPI(agents *store.SQLiteStore) *API {
	return &API{Store: agents}
}

// Routes binds the CRUD endpoints onto the mux under the given prefix.
func (a *API) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix, a.list)
	mux.HandleFunc("POST "+prefix, a.create)
	mux.HandleFunc("GET "+prefix+"/{id}", a.get)
	mux.HandleFunc("PUT "+prefix+"/{id}", a.update)
	mux.HandleFunc("PATCH "+prefix+"/{id}/trust-score", a.updateTrustScore)
	mux.HandleFunc("DELETE "+prefix+"/{id}", a.remove)
}

type agentPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	TrustScore  *int    `json:"trust_score"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	agents, err := a.Store.ListAgents(r.Context())
	if err != nil {
		storeError(w, err, "Failed to fetch agents")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"agents": agents})
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	agent, err := a.Store.GetAgent(r.Context(), r.PathValue("id"))
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Agent not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to fetch agent")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"agent": agent})
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var payload agentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.Name == nil || *payload.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	trustScore := 0
	if payload.TrustScore != nil {
		if !validTrustScore(*payload.TrustScore) {
			respondError(w, http.StatusBadRequest, "Trust score must be a number between 0 and 100")
			return
		}
		trustScore = *payload.TrustScore
	}
	description := ""
	if payload.Description != nil {
		description = *payload.Description
	}
	agent, err := a.Store.CreateAgent(r.Context(), *payload.Name, description, trustScore)
	if err != nil {
		storeError(w, err, "Failed to create agent")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"agent":   agent,
		"message": "Agent created successfully",
	})
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	var payload agentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.TrustScore != nil && !validTrustScore(*payload.TrustScore) {
		respondError(w, http.StatusBadRequest, "Trust score must be a number between 0 and 100")
		return
	}
	agent, err := a.Store.UpdateAgent(r.Context(), r.PathValue("id"), store.AgentUpdate{
		Name:        payload.Name,
		Description: payload.Description,
		TrustScore:  payload.TrustScore,
	})
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Agent not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to update agent")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"agent":   agent,
		"message": "Agent updated successfully",
	})
}

func (a *API) updateTrustScore(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		TrustScore *int `json:"trust_score"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.TrustScore == nil {
		respondError(w, http.StatusBadRequest, "Trust score is required")
		return
	}
	if !validTrustScore(*payload.TrustScore) {
		respondError(w, http.StatusBadRequest, "Trust score must be a number between 0 and 100")
		return
	}
	agent, err := a.Store.UpdateTrustScore(r.Context(), r.PathValue("id"), *payload.TrustScore)
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Agent not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to update trust score")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"agent":   agent,
		"message": "Trust score updated successfully",
	})
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	err := a.Store.DeleteAgent(r.Context(), r.PathValue("id"))
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Agent not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to delete agent")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Agent deleted successfully"})
}

func validTrustScore(score int) bool {
	return score >= 0 && score <= 100
}

// ---------------- shared responders ----------------

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func storeError(w http.ResponseWriter, err error, message string) {
	log.Printf("%s: %v", message, err)
	if store.IsConnectivityError(err) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Database connection failed",
			"hint":  "Verify the database path and that the store is writable",
		})
		return
	}
	respondError(w, http.StatusInternalServerError, message)
}
