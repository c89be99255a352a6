package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/mirrorme/mirrorme/adapter/http"
	"github.com/mirrorme/mirrorme/adapter/http/chat"
	"github.com/mirrorme/mirrorme/genai/llm/provider/openai"
	"github.com/mirrorme/mirrorme/internal/config"
	"github.com/mirrorme/mirrorme/internal/mcp/expose"
	"github.com/mirrorme/mirrorme/internal/scheduling"
	"github.com/mirrorme/mirrorme/internal/social"
	"github.com/mirrorme/mirrorme/internal/store"
	"github.com/mirrorme/mirrorme/internal/tools"
	"github.com/mirrorme/mirrorme/internal/wallet"
	"github.com/mirrorme/mirrorme/internal/x402"
)

// Tool prices in USD.
const (
	bookMeetingPrice      = 0.01
	shortenURLPrice       = 0.02
	generatePasswordPrice = 0.01
)

// ServeCmd starts the backend API and the paid tool server.
// Usage: mirrorme serve -f config.yaml
type ServeCmd struct {
	Config string `short:"f" long:"config" description:"config YAML path"`
}

func (s *ServeCmd) Execute(_ []string) error {
	cfg, err := config.Load(s.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	toolSrv, err := newToolServer(ctx, cfg, db)
	if err != nil {
		return err
	}
	backendSrv := newBackendServer(ctx, cfg, db)

	errCh := make(chan error, 2)
	go func() {
		log.Printf("MirrorMe tool server listening on %s", toolSrv.Addr)
		if err := toolSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	go func() {
		log.Printf("MirrorMe backend listening on %s", backendSrv.Addr)
		if err := backendSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received %s, initiating graceful shutdown", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = backendSrv.Shutdown(shutdownCtx)
		_ = toolSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func newToolServer(ctx context.Context, cfg *config.Config, db *store.SQLiteStore) (*http.Server, error) {
	scheduler := scheduling.New(cfg.CalendlyToken)
	facilitator := x402.New(cfg.FacilitatorURL)
	handler := expose.NewPaidToolHandler(
		expose.QuoteConfig{
			Network:        cfg.PaymentNetwork,
			PayTo:          cfg.PayTo,
			Asset:          cfg.PaymentAsset,
			ResourceBase:   cfg.MCPServerURL,
			VerifyPayments: cfg.VerifyPayments,
		},
		facilitator,
		tools.NewBooking(bookMeetingPrice, scheduler),
		tools.NewShortener(shortenURLPrice, db, cfg.PublicBaseURL),
		tools.NewPasswordGenerator(generatePasswordPrice),
	)
	addr := fmt.Sprintf(":%d", cfg.MCPPort)
	return expose.NewHTTPServer(ctx, addr, handler, cfg.FacilitatorURL)
}

func newBackendServer(ctx context.Context, cfg *config.Config, db *store.SQLiteStore) *http.Server {
	model := openai.NewClient(cfg.OpenAIKey, cfg.Model)
	handler := httpadapter.NewServer(httpadapter.Services{
		Store:        db,
		Model:        model,
		Social:       social.New(cfg.XBearerToken),
		Wallet:       wallet.New(cfg.WalletURL, cfg.WalletAPIKey),
		MCPServerURL: cfg.MCPServerURL,
		Persona:      chat.LoadPersonaPrompt(ctx, cfg.PersonaPromptURL),
	})
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.BackendPort),
		Handler: handler,
	}
}
