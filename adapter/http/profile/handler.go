// Package profile serves the user profile API, including the agent link and
// the social profile proxy.
package profile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mirrorme/mirrorme/internal/social"
	"github.com/mirrorme/mirrorme/internal/store"
)

// Handler is the profile surface under /api/profile.
type Handler struct {
	Store  *store.SQLiteStore
	Social *social.Client
}

// NewHandler creates the profile handler.
func NewHandler(profiles *store.SQLiteStore, socialClient *social.Client) *Handler {
	return &Handler{Store: profiles, Social: socialClient}
}

// Routes binds the profile endpoints onto the mux under the given prefix.
// The static agent/twitter segments are bound before the userId wildcard.
func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/agent/{agentId}", h.getByAgent)
	mux.HandleFunc("GET "+prefix+"/twitter/{username}", h.twitter)
	mux.HandleFunc("GET "+prefix+"/{userId}", h.get)
	mux.HandleFunc("POST "+prefix, h.upsert)
	mux.HandleFunc("PUT "+prefix+"/{userId}", h.update)
	mux.HandleFunc("PATCH "+prefix+"/{userId}/agent", h.setAgent)
	mux.HandleFunc("DELETE "+prefix+"/{userId}", h.remove)
}

type profilePayload struct {
	UserID      string  `json:"user_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	XUsername   *string `json:"x_username"`
	Image       *string `json:"image"`
	AgentID     *string `json:"agent_id"`
}

func (p *profilePayload) upsert() store.ProfileUpsert {
	return store.ProfileUpsert{
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		XUsername:   p.XUsername,
		Image:       p.Image,
		AgentID:     p.AgentID,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Store.GetProfile(r.Context(), r.PathValue("userId"))
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to fetch profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (h *Handler) getByAgent(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Store.GetProfileByAgentID(r.Context(), r.PathValue("agentId"))
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to fetch profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.UserID == "" {
		respondError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	profile, created, err := h.Store.UpsertProfile(r.Context(), payload.upsert())
	if err != nil {
		storeError(w, err, "Failed to save profile")
		return
	}
	status := http.StatusOK
	message := "Profile updated successfully"
	if created {
		status = http.StatusCreated
		message = "Profile created successfully"
	}
	respondJSON(w, status, map[string]interface{}{
		"profile": profile,
		"message": message,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	profile, err := h.Store.UpdateProfile(r.Context(), r.PathValue("userId"), payload.upsert())
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"message": "Profile updated successfully",
	})
}

func (h *Handler) setAgent(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		AgentID string `json:"agent_id"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.AgentID == "" {
		respondError(w, http.StatusBadRequest, "Agent ID is required")
		return
	}
	profile, err := h.Store.SetProfileAgent(r.Context(), r.PathValue("userId"), payload.AgentID)
	if err == store.ErrNotFound {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		storeError(w, err, "Failed to update agent_id")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"message": "Agent ID updated successfully",
	})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProfile(r.Context(), r.PathValue("userId")); err != nil {
		storeError(w, err, "Failed to delete profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Profile deleted successfully"})
}

// twitter proxies the social profile lookup, mapping upstream 404/401/403 to
// the local equivalents.
func (h *Handler) twitter(w http.ResponseWriter, r *http.Request) {
	if !h.Social.Configured() {
		respondError(w, http.StatusInternalServerError, "Social API is not configured")
		return
	}
	user, err := h.Social.GetUserByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		var apiErr *social.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusNotFound:
				respondError(w, http.StatusNotFound, "User not found")
			case http.StatusUnauthorized:
				respondError(w, http.StatusUnauthorized, "Social API authorization failed")
			case http.StatusForbidden:
				respondError(w, http.StatusForbidden, "Social API access forbidden")
			default:
				respondJSON(w, http.StatusInternalServerError, map[string]string{
					"error":   "Failed to fetch user",
					"details": apiErr.Detail,
				})
			}
			return
		}
		log.Printf("social lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
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
			"error":   "Database connection failed",
			"message": "Could not reach the profile store",
			"hint":    "Verify the database path and that the store is writable",
		})
		return
	}
	respondError(w, http.StatusInternalServerError, message)
}
