package tools

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/mirrorme/mirrorme/internal/store"
	mcpschema "github.com/viant/mcp-protocol/schema"
)

const shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewShortener creates the URL-shortening tool. Short links are persisted in
// the store; the backend serves the redirects under /s/{code}.
func NewShortener(priceUSD float64, links *store.SQLiteStore, publicBase string) *PaidTool {
	return &PaidTool{
		Name:        "shorten_url",
		Description: "Shorten a URL",
		PriceUSD:    priceUSD,
		InputSchema: mcpschema.ToolInputSchema{
			Type: "object",
			Properties: mcpschema.ToolInputSchemaProperties{
				"url": property("string", "The URL to shorten"),
			},
			Required: []string{"url"},
		},
		Execute: func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
			return shortenURL(ctx, args, links, publicBase)
		},
	}
}

func shortenURL(ctx context.Context, args map[string]interface{}, links *store.SQLiteStore, publicBase string) (map[string]interface{}, error) {
	raw := stringArg(args, "url")
	if raw == "" {
		return nil, fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("url must be absolute")
	}
	code := newShortCode(8)
	link, err := links.CreateShortLink(ctx, code, raw)
	if err != nil {
		return nil, fmt.Errorf("persist short link: %w", err)
	}
	return map[string]interface{}{
		"success":     true,
		"code":        link.Code,
		"shortUrl":    strings.TrimRight(publicBase, "/") + "/s/" + link.Code,
		"originalUrl": link.URL,
	}, nil
}

func newShortCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(shortCodeAlphabet))))
		code[i] = shortCodeAlphabet[n.Int64()]
	}
	return string(code)
}
