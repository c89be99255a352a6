package payment

import (
	"context"
	"sync"

	"github.com/mirrorme/mirrorme/genai/tool"
)

// OutcomeKind classifies the result of a gated tool execution.
type OutcomeKind int

const (
	// OutcomePaid means the tool executed (payment settled or not required).
	OutcomePaid OutcomeKind = iota
	// OutcomeNeedsPayment means the tool quoted and awaits client approval.
	OutcomeNeedsPayment
	// OutcomeFailed means the execution failed outright.
	OutcomeFailed
)

// Outcome is the explicit sum of gated execution results.
type Outcome struct {
	Kind        OutcomeKind
	Result      *tool.Result
	Requirement *Requirement
	Err         error
}

// Gate wraps tool handlers with the turn's payment confirmation. When a
// wrapped tool quotes a requirement covered by the confirmation, the gate
// re-invokes it once with the approved quote as proof; otherwise the quote
// is recorded for the turn's paymentRequired response.
type Gate struct {
	confirmation *Confirmation

	mux    sync.Mutex
	quoted []Requirement
}

// NewGate creates a gate for one conversation turn.
func NewGate(confirmation *Confirmation) *Gate {
	return &Gate{confirmation: confirmation}
}

// Quoted returns the requirements quoted during this turn, in execution
// order, first accepted option per call.
func (g *Gate) Quoted() []Requirement {
	g.mux.Lock()
	defer g.mux.Unlock()
	ret := make([]Requirement, len(g.quoted))
	copy(ret, g.quoted)
	return ret
}

func (g *Gate) record(req Requirement) {
	g.mux.Lock()
	defer g.mux.Unlock()
	g.quoted = append(g.quoted, req)
}

// Execute runs a handler through the gate and classifies the outcome.
func (g *Gate) Execute(ctx context.Context, handler tool.Handler, args map[string]interface{}) *Outcome {
	result, err := handler(ctx, args)
	if err != nil {
		return &Outcome{Kind: OutcomeFailed, Err: err}
	}
	accepts := ExtractRequirements(result.Structured)
	if len(accepts) == 0 {
		return &Outcome{Kind: OutcomePaid, Result: result}
	}
	fresh := accepts[0]
	if approved, ok := g.confirmation.Covers(&fresh); ok {
		return g.executePaid(ctx, handler, args, approved, &fresh)
	}
	g.record(fresh)
	return &Outcome{Kind: OutcomeNeedsPayment, Result: result, Requirement: &fresh}
}

func (g *Gate) executePaid(ctx context.Context, handler tool.Handler, args map[string]interface{}, approved, fresh *Requirement) *Outcome {
	paidArgs := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		paidArgs[k] = v
	}
	paidArgs[PaymentArgKey] = approved.AsMap()
	result, err := handler(ctx, paidArgs)
	if err != nil {
		return &Outcome{Kind: OutcomeFailed, Err: err}
	}
	if accepts := ExtractRequirements(result.Structured); len(accepts) > 0 {
		// The server rejected the proof and re-quoted.
		requote := accepts[0]
		g.record(requote)
		return &Outcome{Kind: OutcomeNeedsPayment, Result: result, Requirement: &requote}
	}
	return &Outcome{Kind: OutcomePaid, Result: result, Requirement: fresh}
}

// Wrap adapts a tool entry so the conversation loop executes it through the
// gate transparently.
func (g *Gate) Wrap(entry tool.Entry) tool.Entry {
	handler := entry.Handler
	entry.Handler = func(ctx context.Context, args map[string]interface{}) (*tool.Result, error) {
		outcome := g.Execute(ctx, handler, args)
		if outcome.Kind == OutcomeFailed {
			return nil, outcome.Err
		}
		return outcome.Result, nil
	}
	return entry
}
