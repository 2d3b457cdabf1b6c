// Package agent holds the per-session conversational agent: it runs the
// compiled graph for each message and keeps the session's report findings.
package agent

import (
	"context"
	"sync"

	"github.com/maleon-core-poc/server/internal/agent/graph"
	"github.com/maleon-core-poc/server/internal/agent/graph/conversations"
	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/maleon-core-poc/server/internal/intel"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

const (
	// ApologyReply is returned whenever the graph fails.
	ApologyReply = "¡Ay fo! Se me gastó la batería un momento, ¿me lo repites?"
	// NotAnalyzed marks a pillar with no lookup yet.
	NotAnalyzed = "No analizado"
)

// Agent is one session's conversational state. Callers hold the turn lock
// (Lock/Unlock) around Handle and RecordLookup so a session never processes
// two messages at once.
type Agent struct {
	sessionID string
	runner    graph.Runner
	messages  *conversations.MessagesManager

	turn sync.Mutex

	mu       sync.Mutex
	findings map[intel.Pillar]string
}

// New creates the agent of one session. Every agent shares runner and messages.
func New(sessionID string, runner graph.Runner, messages *conversations.MessagesManager) *Agent {
	findings := make(map[intel.Pillar]string, len(intel.Pillars))
	for _, p := range intel.Pillars {
		findings[p] = NotAnalyzed
	}
	return &Agent{
		sessionID: sessionID,
		runner:    runner,
		messages:  messages,
		findings:  findings,
	}
}

// NewFactory returns a constructor suitable for a session registry.
func NewFactory(runner graph.Runner, messages *conversations.MessagesManager) func(sessionID string) *Agent {
	return func(sessionID string) *Agent {
		return New(sessionID, runner, messages)
	}
}

func (a *Agent) SessionID() string { return a.sessionID }

// Lock acquires the session's turn lock.
func (a *Agent) Lock() { a.turn.Lock() }

// Unlock releases the session's turn lock.
func (a *Agent) Unlock() { a.turn.Unlock() }

// Handle answers one message. Errors never escape: they are logged and
// turned into ApologyReply.
func (a *Agent) Handle(ctx context.Context, text, userTime string) model.Reply {
	log := logx.WithSession(a.sessionID)
	out, err := a.runner.Invoke(ctx, model.QueryInput{
		SessionID: a.sessionID,
		Text:      text,
		Time:      userTime,
		Findings:  a.Findings(),
	})
	if err != nil {
		log.Error().Err(err).Msg("agent graph failed")
		return model.TextReply{Text: ApologyReply}
	}

	reply := out.Reply()
	if t, ok := reply.(model.TextReply); ok && t.Text == "" {
		log.Warn().Str("route", out.Route).Msg("agent produced an empty reply")
		return model.TextReply{Text: ApologyReply}
	}
	log.Debug().Str("route", out.Route).Msg("agent replied")
	return reply
}

// RecordLookup stores a lookup summary under its pillar (last write wins; an
// empty summary leaves the pillar untouched) and appends the spoken reply as
// the assistant turn.
func (a *Agent) RecordLookup(ctx context.Context, pillar intel.Pillar, summary, reply string) {
	if summary != "" {
		a.mu.Lock()
		a.findings[pillar] = summary
		a.mu.Unlock()
	}
	if reply == "" {
		return
	}
	if err := a.messages.SaveResponse(ctx, a.sessionID, reply); err != nil {
		log := logx.WithSession(a.sessionID)
		log.Error().Err(err).Msg("Error saving lookup reply")
	}
}

// Forget drops the session's stored history. It runs when the session is
// evicted for inactivity.
func (a *Agent) Forget(ctx context.Context) {
	if err := a.messages.ClearHistory(ctx, a.sessionID); err != nil {
		log := logx.WithSession(a.sessionID)
		log.Warn().Err(err).Msg("Error clearing history of evicted session")
	}
}

// Findings returns a snapshot of the report accumulator keyed by pillar name.
func (a *Agent) Findings() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.findings))
	for p, v := range a.findings {
		out[string(p)] = v
	}
	return out
}
