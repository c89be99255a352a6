// Package http assembles the backend REST surface: the chat turn endpoint,
// agent and profile CRUD, short-link redirects and the liveness probe.
package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mirrorme/mirrorme/adapter/http/agents"
	"github.com/mirrorme/mirrorme/adapter/http/chat"
	"github.com/mirrorme/mirrorme/adapter/http/profile"
	"github.com/mirrorme/mirrorme/genai/conversation"
	"github.com/mirrorme/mirrorme/internal/social"
	"github.com/mirrorme/mirrorme/internal/store"
	"github.com/mirrorme/mirrorme/internal/wallet"
)

// Services carries the long-lived handles constructed at startup and
// injected into request handlers.
type Services struct {
	Store        *store.SQLiteStore
	Model        conversation.Model
	Social       *social.Client
	Wallet       *wallet.Client
	MCPServerURL string
	Persona      string
}

// NewServer returns the backend http.Handler with all routes bound.
func NewServer(svc Services) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/agent", chat.NewHandler(svc.Model, svc.MCPServerURL, svc.Persona))

	agents.NewAPI(svc.Store).Routes(mux, "/api/agents-api")
	agents.NewRegistration(svc.Store, svc.Wallet).Routes(mux, "/api/agents")
	profile.NewHandler(svc.Store, svc.Social).Routes(mux, "/api/profile")

	mux.HandleFunc("GET /s/{code}", func(w http.ResponseWriter, r *http.Request) {
		url, err := svc.Store.ResolveShortLink(r.Context(), r.PathValue("code"))
		if err == store.ErrNotFound {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Printf("short link lookup failed: %v", err)
			http.Error(w, "short link lookup failed", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return WithCORS(mux)
}
