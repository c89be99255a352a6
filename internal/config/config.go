// Package config resolves service configuration from an optional YAML file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither file nor environment provides a value.
const (
	DefaultBackendPort  = 3001
	DefaultMCPPort      = 3002
	DefaultModel        = "gpt-4o-mini"
	DefaultNetwork      = "base-sepolia"
	DefaultPayTo        = "0x958543756A4c7AC6fB361f0efBfeCD98E4D297Db"
	DefaultAsset        = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	DefaultFacilitator  = "https://x402.org/facilitator"
	DefaultMCPServerURL = "http://localhost:3002/mcp"
)

// Config is the full service configuration.
type Config struct {
	// BackendPort serves the chat and CRUD API.
	BackendPort int `yaml:"backendPort"`
	// MCPPort serves the paid tool endpoint.
	MCPPort int `yaml:"mcpPort"`
	// PublicBaseURL is the externally reachable backend base (short links).
	PublicBaseURL string `yaml:"publicBaseURL"`

	// DatabasePath locates the SQLite store. Required.
	DatabasePath string `yaml:"databasePath"`

	// OpenAIKey and Model configure the chat model provider.
	OpenAIKey string `yaml:"openAIKey"`
	Model     string `yaml:"model"`

	// MCPServerURL is the tool endpoint the orchestrator connects to.
	MCPServerURL string `yaml:"mcpServerURL"`

	// PersonaPromptURL optionally overrides the embedded persona prompt.
	PersonaPromptURL string `yaml:"personaPromptURL"`

	// Payment terms quoted by the tool server.
	PaymentNetwork string `yaml:"paymentNetwork"`
	PayTo          string `yaml:"payTo"`
	PaymentAsset   string `yaml:"paymentAsset"`
	FacilitatorURL string `yaml:"facilitatorURL"`
	VerifyPayments bool   `yaml:"verifyPayments"`

	// Third-party tokens; missing tokens degrade individual endpoints.
	CalendlyToken string `yaml:"calendlyToken"`
	XBearerToken  string `yaml:"xBearerToken"`
	WalletURL     string `yaml:"walletURL"`
	WalletAPIKey  string `yaml:"walletAPIKey"`
}

// Load reads the optional YAML file, then overlays environment variables.
// A .env file in the working directory is honored for development.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BackendPort:    DefaultBackendPort,
		MCPPort:        DefaultMCPPort,
		Model:          DefaultModel,
		MCPServerURL:   DefaultMCPServerURL,
		PaymentNetwork: DefaultNetwork,
		PayTo:          DefaultPayTo,
		PaymentAsset:   DefaultAsset,
		FacilitatorURL: DefaultFacilitator,
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.BackendPort)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envInt("PORT", &c.BackendPort)
	envInt("MCP_PORT", &c.MCPPort)
	envString("PUBLIC_BASE_URL", &c.PublicBaseURL)
	envString("DATABASE_PATH", &c.DatabasePath)
	envString("OPENAI_API_KEY", &c.OpenAIKey)
	envString("OPENAI_MODEL", &c.Model)
	envString("MCP_SERVER_URL", &c.MCPServerURL)
	envString("PERSONA_PROMPT_URL", &c.PersonaPromptURL)
	envString("PAYMENT_NETWORK", &c.PaymentNetwork)
	envString("PAYEE_ADDRESS", &c.PayTo)
	envString("PAYMENT_ASSET", &c.PaymentAsset)
	envString("FACILITATOR_URL", &c.FacilitatorURL)
	envBool("VERIFY_PAYMENTS", &c.VerifyPayments)
	envString("CALENDLY_TOKEN", &c.CalendlyToken)
	envString("X_BEARER_TOKEN", &c.XBearerToken)
	envString("WALLET_SERVICE_URL", &c.WalletURL)
	envString("WALLET_API_KEY", &c.WalletAPIKey)
}

// Validate enforces the settings the services cannot start without. Missing
// third-party tokens are not fatal; the endpoints that need them degrade.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required (set DATABASE_PATH)")
	}
	if c.BackendPort <= 0 || c.MCPPort <= 0 {
		return fmt.Errorf("ports must be positive")
	}
	return nil
}

func envString(key string, target *string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envInt(key string, target *int) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func envBool(key string, target *bool) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}
