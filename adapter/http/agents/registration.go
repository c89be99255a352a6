package agents

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mirrorme/mirrorme/internal/store"
	"github.com/mirrorme/mirrorme/internal/wallet"
)

// Registration is the agent registration surface under /api/agents. It
// creates the agent record and resolves a server-managed wallet per agent.
type Registration struct {
	Store  *store.SQLiteStore
	Wallet *wallet.Client
}

// NewRegistration creates the registration handler.
func NewRegistration(agents *store.SQLiteStore, walletClient *wallet.Client) *Registration {
	return &Registration{Store: agents, Wallet: walletClient}
}

// Routes binds the registration endpoints onto the mux under the given prefix.
func (h *Registration) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix, h.register)
	mux.HandleFunc("GET "+prefix, h.list)
	mux.HandleFunc("GET "+prefix+"/{id}/wallet", h.walletAddress)
}

func (h *Registration) register(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       string `json:"image"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if payload.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	agent, err := h.Store.CreateAgent(r.Context(), payload.Name, payload.Description, 0)
	if err != nil {
		log.Printf("agent registration failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process registration")
		return
	}
	result := map[string]interface{}{
		"agentId":     agent.ID,
		"name":        agent.Name,
		"description": agent.Description,
		"image":       payload.Image,
	}
	if h.Wallet.Configured() {
		if account, err := h.Wallet.GetOrCreateAccount(r.Context(), agent.ID); err != nil {
			log.Printf("wallet provisioning failed for agent %s: %v", agent.ID, err)
		} else {
			result["walletAddress"] = account.Address
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"result":  result,
		"message": "Agent created successfully",
	})
}

func (h *Registration) list(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.ListAgents(r.Context())
	if err != nil {
		log.Printf("agent listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to process registration")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"result": agents})
}

func (h *Registration) walletAddress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "ID is required")
		return
	}
	if !h.Wallet.Configured() {
		respondError(w, http.StatusInternalServerError, "Wallet service is not configured")
		return
	}
	account, err := h.Wallet.GetOrCreateAccount(r.Context(), id)
	if err != nil {
		log.Printf("wallet lookup failed for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to get wallet address")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":      id,
		"address": account.Address,
	})
}
