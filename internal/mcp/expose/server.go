package expose

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/viant/jsonrpc/transport"
	mcpclientproto "github.com/viant/mcp-protocol/client"
	mcplogger "github.com/viant/mcp-protocol/logger"
	mcpserverproto "github.com/viant/mcp-protocol/server"
	mcpserver "github.com/viant/mcp/server"
)

// NewHTTPServer constructs the paid-tool MCP server over streamable HTTP,
// with a plain /health endpoint alongside the protocol routes. It does not
// start listening; callers run ListenAndServe and handle shutdown.
func NewHTTPServer(ctx context.Context, addr string, handler *PaidToolHandler, facilitatorURL string) (*http.Server, error) {
	srv, err := mcpserver.New(
		mcpserver.WithRootRedirect(true),
		mcpserver.WithNewHandler(func(_ context.Context, _ transport.Notifier, _ mcplogger.Logger, _ mcpclientproto.Operations) (mcpserverproto.Handler, error) {
			return handler, nil
		}),
	)
	if err != nil {
		return nil, err
	}
	srv.UseStreamableHTTP(true)

	httpSrv := srv.HTTP(ctx, addr)
	mcpHandler := httpSrv.Handler

	health := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"service":     "pay-mcp-server",
			"network":     handler.quote.Network,
			"recipient":   handler.quote.PayTo,
			"facilitator": facilitatorURL,
		})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /mcp/health", health)
	mux.Handle("/", mcpHandler)
	httpSrv.Handler = mux
	return httpSrv, nil
}
