// Package payment implements the x402-style micropayment gate: paid tools
// answer with a quote in their structured content, the client confirms, and
// the confirmed quote is forwarded back as proof on the next invocation.
package payment

import (
	"encoding/json"
	"math"
	"strconv"
)

const (
	// ErrorKey is the structured-content key a paid tool uses to signal that
	// payment is required before it will execute.
	ErrorKey = "x402/error"

	// PaymentArgKey is the reserved argument key carrying the confirmed quote
	// back to the tool server.
	PaymentArgKey = "x402/payment"

	// DefaultScheme is the only settlement scheme currently supported.
	DefaultScheme = "exact"

	// DefaultTimeoutSeconds bounds how long a quote remains actionable.
	DefaultTimeoutSeconds = 300
)

// Requirement describes one accepted way to pay for a tool invocation.
type Requirement struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description,omitempty"`
	MimeType          string            `json:"mimeType,omitempty"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds,omitempty"`
	Asset             string            `json:"asset,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Matches reports whether two quotes denote the same payable action. The
// (payTo, maxAmountRequired, resource) triple must match exactly.
func (r *Requirement) Matches(other *Requirement) bool {
	if r == nil || other == nil {
		return false
	}
	return r.PayTo == other.PayTo &&
		r.MaxAmountRequired == other.MaxAmountRequired &&
		r.Resource == other.Resource
}

// AsMap returns the requirement as a generic JSON object, suitable for
// embedding in tool arguments or structured content.
func (r *Requirement) AsMap() map[string]interface{} {
	data, _ := json.Marshal(r)
	ret := map[string]interface{}{}
	_ = json.Unmarshal(data, &ret)
	return ret
}

// BaseUnits converts a USD price into 6-decimal stablecoin base units,
// e.g. 0.01 -> "10000".
func BaseUnits(usd float64) string {
	return strconv.FormatInt(int64(math.Round(usd*1e6)), 10)
}

// RequiredSignal is the payload stored under ErrorKey in structured content.
type RequiredSignal struct {
	Accepts []Requirement `json:"accepts"`
}

// ExtractRequirements decodes the payment-required signal from a tool
// result's structured content. It returns nil when the result carries none.
func ExtractRequirements(structured map[string]interface{}) []Requirement {
	if structured == nil {
		return nil
	}
	raw, ok := structured[ErrorKey]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	signal := RequiredSignal{}
	if err := json.Unmarshal(data, &signal); err != nil {
		return nil
	}
	return signal.Accepts
}

// ParseRequirement decodes a single requirement from a generic JSON value.
func ParseRequirement(raw interface{}) (*Requirement, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	req := &Requirement{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Confirmation carries the client's approval of previously quoted
// requirements for the current turn.
type Confirmation struct {
	// Confirmed is set when the client approved payment for this turn.
	Confirmed bool

	// Accepted lists the quotes the client approved.
	Accepted []Requirement
}

// Covers returns the approved quote matching a freshly derived requirement.
// A stale or altered quote does not cover and forces a re-quote.
func (c *Confirmation) Covers(fresh *Requirement) (*Requirement, bool) {
	if c == nil || !c.Confirmed {
		return nil, false
	}
	for i := range c.Accepted {
		if c.Accepted[i].Matches(fresh) {
			return &c.Accepted[i], true
		}
	}
	return nil, false
}
