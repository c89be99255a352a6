package tools

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

const (
	passwordLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordSymbols = "!@#$%^&*()-_=+[]{}<>?"

	minPasswordLength = 8
	maxPasswordLength = 128
)

// NewPasswordGenerator creates the random-password tool.
func NewPasswordGenerator(priceUSD float64) *PaidTool {
	return &PaidTool{
		Name:        "generate_password",
		Description: "Generate a random password",
		PriceUSD:    priceUSD,
		InputSchema: mcpschema.ToolInputSchema{
			Type: "object",
			Properties: mcpschema.ToolInputSchemaProperties{
				"length":         property("number", "Password length (8-128, default 16)"),
				"includeSymbols": property("boolean", "Include punctuation symbols (default true)"),
			},
		},
		Execute: generatePassword,
	}
}

func generatePassword(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	length := int(numberArg(args, "length", 16))
	if length < minPasswordLength || length > maxPasswordLength {
		return nil, fmt.Errorf("length must be between %d and %d", minPasswordLength, maxPasswordLength)
	}
	alphabet := passwordLetters
	if boolArg(args, "includeSymbols", true) {
		alphabet += passwordSymbols
	}
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return nil, fmt.Errorf("random source failed: %w", err)
		}
		password[i] = alphabet[n.Int64()]
	}
	return map[string]interface{}{
		"success":  true,
		"password": string(password),
		"length":   length,
	}, nil
}
