// Package dispatch answers one chat request: response cache first, then the
// session's agent, then tool resolution, speech and cache write-back.
package dispatch

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/maleon-core-poc/server/internal/agent"
	"github.com/maleon-core-poc/server/internal/agent/graph/tools"
	"github.com/maleon-core-poc/server/internal/agent/model"
	"github.com/maleon-core-poc/server/internal/cache"
	"github.com/maleon-core-poc/server/internal/intel"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

type Config struct {
	// Timeout bounds every external call made for one request; 0 disables it.
	Timeout           time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"60s"`
	DynamicWords      []string      `envconfig:"DYNAMIC_WORDS" default:"clima,tiempo,hora,hoy,ayer,mañana"`
	ContextualPhrases []string      `envconfig:"CONTEXTUAL_PHRASES" default:"hablamos,dijiste,resumen,recordar,recuerdas,antes,me dijiste,platicamos,qué hemos,de qué,lo anterior"`
}

type ChatRequest struct {
	Text      string `json:"text"`
	Time      string `json:"time,omitempty"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Reply    string `json:"reply"`
	AudioURL string `json:"audio_url"`
}

// Session is the per-session agent as the dispatcher sees it.
type Session interface {
	Lock()
	Unlock()
	Handle(ctx context.Context, text, userTime string) model.Reply
	RecordLookup(ctx context.Context, pillar intel.Pillar, summary, reply string)
}

// Sessions returns the session for an id, creating it on first use.
type Sessions func(sessionID string) Session

// ResponseCache is the fuzzy reply cache.
type ResponseCache interface {
	Lookup(utterance string) cache.Lookup
	Append(ctx context.Context, key string, reply cache.Reply) error
}

// Lookups are the domain services behind the model's tool calls.
type Lookups interface {
	Growth(ctx context.Context, f intel.GrowthFeatures) (intel.GrowthResult, error)
	ServiceStatus(raw string) intel.ServiceStatus
	SecurityStatus(raw string) intel.SecurityStatus
}

// Speaker turns text into a public audio URL.
type Speaker interface {
	Speak(ctx context.Context, text string) (string, error)
}

type Dispatcher struct {
	cfg      Config
	policy   QueryPolicy
	cache    ResponseCache
	sessions Sessions
	lookups  Lookups
	speaker  Speaker
	strip    *bluemonday.Policy
}

// New wires a dispatcher. speaker may be nil, in which case replies carry no audio.
func New(cfg Config, policy QueryPolicy, responses ResponseCache, sessions Sessions, lookups Lookups, speaker Speaker) *Dispatcher {
	if policy == nil {
		policy = NewKeywordPolicy(cfg)
	}
	return &Dispatcher{
		cfg:      cfg,
		policy:   policy,
		cache:    responses,
		sessions: sessions,
		lookups:  lookups,
		speaker:  speaker,
		strip:    bluemonday.StrictPolicy(),
	}
}

// Handle always produces a reply; failures degrade to the apology text or to
// an empty audio URL.
func (d *Dispatcher) Handle(ctx context.Context, req ChatRequest) ChatResponse {
	log := logx.WithSession(req.SessionID)
	callCtx := ctx
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	dynamic := d.policy.IsDynamic(req.Text)
	contextual := d.policy.IsContextual(req.Text)
	cacheable := !dynamic && !contextual

	var match cache.Lookup
	if cacheable {
		match = d.cache.Lookup(req.Text)
		if match.Cached != nil {
			log.Info().Str("key", match.Key).Int("score", match.Score).Msg("cache hit")
			return ChatResponse{Reply: match.Cached.Text, AudioURL: match.Cached.AudioURL}
		}
	}

	sess := d.sessions(req.SessionID)
	sess.Lock()
	text, meta, ok := d.answer(callCtx, sess, req)
	sess.Unlock()

	resp := ChatResponse{Reply: text, AudioURL: d.speak(callCtx, req.SessionID, text)}

	if cacheable && ok {
		key := match.Key
		if key == "" {
			key = cache.Canonical(req.Text)
		}
		if err := d.cache.Append(context.WithoutCancel(ctx), key, cache.Reply{Text: resp.Reply, AudioURL: resp.AudioURL, Tool: meta}); err != nil {
			log.Error().Err(err).Msg("cache write-back failed")
		}
	}
	log.Debug().Bool("dynamic", dynamic).Bool("contextual", contextual).Bool("cached", cacheable && ok).Msg("chat handled")
	return resp
}

// answer runs the agent and resolves a tool call. ok is false for apologies,
// which are never cached.
func (d *Dispatcher) answer(ctx context.Context, sess Session, req ChatRequest) (string, *cache.ToolMeta, bool) {
	switch r := sess.Handle(ctx, req.Text, req.Time).(type) {
	case model.ToolInvocation:
		return d.resolveTool(ctx, sess, req.SessionID, r)
	case model.TextReply:
		return r.Text, nil, r.Text != agent.ApologyReply
	default:
		return agent.ApologyReply, nil, false
	}
}

func (d *Dispatcher) resolveTool(ctx context.Context, sess Session, sessionID string, inv model.ToolInvocation) (string, *cache.ToolMeta, bool) {
	log := logx.WithSession(sessionID)
	pillar, known := tools.PillarOf(inv.Name)
	text, summary, muni, err := d.lookup(ctx, inv)
	if !known || err != nil {
		log.Warn().Err(err).Str("tool", inv.Name).Str("arguments", inv.Arguments).Msg("tool call could not be resolved")
		sess.RecordLookup(ctx, pillar, "", agent.ApologyReply)
		return agent.ApologyReply, nil, false
	}

	sess.RecordLookup(ctx, pillar, summary, text)
	log.Info().Str("tool", inv.Name).Str("municipality", muni).Bool("found", summary != "").Msg("tool resolved")
	return text, &cache.ToolMeta{Name: inv.Name, Municipality: muni}, true
}

// lookup returns the scripted sentence, the accumulator summary (empty when
// nothing was found) and the resolved municipality.
func (d *Dispatcher) lookup(ctx context.Context, inv model.ToolInvocation) (text, summary, muni string, err error) {
	switch inv.Name {
	case tools.ToolPredictGrowth:
		args, err := tools.ParseGrowth(inv.Arguments)
		if err != nil {
			return "", "", "", err
		}
		res, err := d.lookups.Growth(ctx, args.Features())
		if err != nil {
			return "", "", "", err
		}
		return fmt.Sprintf("Mare nene, ese negocio en %s pinta para ser %s.", res.Municipality, res.Label),
			res.Summary(), res.Municipality, nil

	case tools.ToolSearchServices:
		args, err := tools.ParseMuni(inv.Arguments)
		if err != nil {
			return "", "", "", err
		}
		st := d.lookups.ServiceStatus(args.Muni)
		if !st.Found {
			return fmt.Sprintf("Mare nene, no encontré datos de servicios para %s.", st.Municipality), "", st.Municipality, nil
		}
		return fmt.Sprintf("Mira nene, en %s la situación es %s. Ya lo anoté.", st.Municipality, st.Category),
			st.Summary(), st.Municipality, nil

	case tools.ToolCheckSecurity:
		args, err := tools.ParseMuni(inv.Arguments)
		if err != nil {
			return "", "", "", err
		}
		st := d.lookups.SecurityStatus(args.Muni)
		if !st.Found {
			return fmt.Sprintf("Fíjate que no tengo el reporte de seguridad de %s a la mano.", st.Municipality), "", st.Municipality, nil
		}
		return fmt.Sprintf("Chequé lo de seguridad en %s y está %s.", st.Municipality, st.Category),
			st.Summary(), st.Municipality, nil
	}
	return "", "", "", fmt.Errorf("unknown tool %q", inv.Name)
}

// SpeakableText removes markup so links and line breaks are not read aloud.
func (d *Dispatcher) SpeakableText(text string) string {
	text = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ").Replace(text)
	return strings.Join(strings.Fields(html.UnescapeString(d.strip.Sanitize(text))), " ")
}

func (d *Dispatcher) speak(ctx context.Context, sessionID, text string) string {
	if d.speaker == nil {
		return ""
	}
	spoken := d.SpeakableText(text)
	if spoken == "" {
		return ""
	}
	url, err := d.speaker.Speak(ctx, spoken)
	if err != nil {
		log := logx.WithSession(sessionID)
		log.Error().Err(err).Msg("speech synthesis failed")
		return ""
	}
	return url
}
