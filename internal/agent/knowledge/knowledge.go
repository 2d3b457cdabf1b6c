// Package knowledge loads the static reference data the agent prompts with:
// the VIP guest table and the plain-text knowledge corpus.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maleon-core-poc/server/internal/textmatch"
	logx "github.com/maleon-core-poc/server/pkg/logger"
)

// VIP is one guest the assistant should recognise by alias.
type VIP struct {
	Name      string   `json:"nombre"`
	Role      string   `json:"cargo"`
	Aliases   []string `json:"alias"`
	Interests []string `json:"intereses,omitempty"`
}

// Base is read-only after Load.
type Base struct {
	vipKeys []string
	vips    map[string]VIP
	corpus  string
}

// New builds a Base from already-loaded data; mostly for tests.
func New(vips map[string]VIP, corpus string) *Base {
	if vips == nil {
		vips = map[string]VIP{}
	}
	keys := make([]string, 0, len(vips))
	for k := range vips {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Base{vipKeys: keys, vips: vips, corpus: corpus}
}

// Load reads the VIP JSON file and concatenates every file matching
// knowledgeGlob. Missing or malformed inputs degrade to empty data.
func Load(vipFile, knowledgeGlob string) *Base {
	vips := map[string]VIP{}
	if data, err := os.ReadFile(vipFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logx.Warn().Err(err).Str("file", vipFile).Msg("cannot read VIP file")
		}
	} else if err := json.Unmarshal(data, &vips); err != nil {
		logx.Warn().Err(err).Str("file", vipFile).Msg("malformed VIP file; ignoring")
		vips = map[string]VIP{}
	}

	var corpus strings.Builder
	files, err := filepath.Glob(knowledgeGlob)
	if err != nil {
		logx.Warn().Err(err).Str("glob", knowledgeGlob).Msg("bad knowledge glob")
	}
	sort.Strings(files)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logx.Warn().Err(err).Str("file", f).Msg("cannot read knowledge file")
			continue
		}
		fmt.Fprintf(&corpus, "\n--- INFO %s ---\n%s\n", filepath.Base(f), data)
	}

	b := New(vips, corpus.String())
	logx.Info().Int("vips", len(vips)).Int("knowledge_files", len(files)).Msg("knowledge base loaded")
	return b
}

// Corpus is the concatenated knowledge text.
func (b *Base) Corpus() string {
	return b.corpus
}

// VIPTableJSON renders the VIP table for prompts.
func (b *Base) VIPTableJSON() string {
	data, err := json.Marshal(b.vips)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DetectVIP returns the first VIP (by table key order) with an alias that
// appears as a whole word in message.
func (b *Base) DetectVIP(message string) (VIP, bool) {
	for _, k := range b.vipKeys {
		v := b.vips[k]
		for _, alias := range v.Aliases {
			if textmatch.ContainsWord(message, alias) {
				return v, true
			}
		}
	}
	return VIP{}, false
}
