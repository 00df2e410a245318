// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package risk implements the rule-based clause scoring engine: phrase
// tagging, banded and weighted scoring, mitigation, severity bands, document
// grades, and the aggregate summary.
package risk

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"

	"github.com/pdiddy/clause-risk/pkg/types"
)

//go:embed rules.yaml
var defaultRules []byte

// ErrConfiguration marks a missing or malformed rule table or setting.
// Scoring without rules is meaningless, so callers treat it as fatal.
var ErrConfiguration = errors.New("configuration error")

// ConfigError describes why a rule table or setting was rejected.
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("configuration error in %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports ErrConfiguration as a match so callers can use errors.Is.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// TagDef configures one risk tag.
type TagDef struct {
	Name types.RiskTag `yaml:"name" json:"name"`

	// Weight is the tag's contribution under the weighted regime. Zero means
	// the table's default tag weight.
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`

	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// Rule is one phrase row of the table.
type Rule struct {
	Phrase string          `yaml:"phrase" json:"phrase"`
	Tags   []types.RiskTag `yaml:"tags" json:"tags"`
	Weight float64         `yaml:"weight" json:"weight"`
}

// TokenGroup is a set of single tokens that tag a clause like a rule row,
// usually produced by auto-learning.
type TokenGroup struct {
	Name   string        `yaml:"name" json:"name"`
	Tag    types.RiskTag `yaml:"tag" json:"tag"`
	Weight float64       `yaml:"weight" json:"weight"`
	Tokens []string      `yaml:"tokens" json:"tokens"`
}

// Mitigation lists protective phrases and the discount they earn.
type Mitigation struct {
	Factor  float64  `yaml:"factor" json:"factor"`
	Phrases []string `yaml:"phrases" json:"phrases"`
}

// Bands buckets raw banded weight: >= High is 3, >= Medium is 2, > 0 is 1.
type Bands struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// SeverityThresholds maps a final score to LOW (<= Low), MEDIUM (<= Medium)
// or HIGH.
type SeverityThresholds struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// RatingThresholds maps a risky percentage to A (<= A), B (<= B), C (<= C)
// or D.
type RatingThresholds struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// Preset names shipped with the default table.
const (
	PresetStrict   = "strict"
	PresetStandard = "standard"
)

// RuleTable is the versioned scoring configuration. A loaded table is never
// modified; learning produces a new table.
type RuleTable struct {
	Version          int                                        `yaml:"version" json:"version"`
	DefaultTagWeight float64                                    `yaml:"default_tag_weight" json:"default_tag_weight"`
	Tags             []TagDef                                   `yaml:"tags" json:"tags"`
	Rules            []Rule                                     `yaml:"rules" json:"rules"`
	TokenGroups      []TokenGroup                               `yaml:"token_groups" json:"token_groups"`
	Mitigation       Mitigation                                 `yaml:"mitigation" json:"mitigation"`
	Bands            Bands                                      `yaml:"bands" json:"bands"`
	SeverityBands    map[types.ScoringRegime]SeverityThresholds `yaml:"severity" json:"severity"`
	Ratings          map[string]RatingThresholds                `yaml:"ratings" json:"ratings"`
	DefaultRating    map[types.ScoringRegime]string             `yaml:"default_rating" json:"default_rating"`

	matchers   []matcher
	mitigators []string
	tagIndex   map[types.RiskTag]int
}

// matcher is a folded phrase or token with what it contributes.
type matcher struct {
	needle string
	tags   []types.RiskTag
	weight float64
}

// DefaultRuleTable returns the embedded rule table.
func DefaultRuleTable() (*RuleTable, error) {
	return ParseRuleTable(defaultRules, "embedded rules")
}

// LoadRuleTable reads a YAML (or JSON) rule table from path. An empty path
// selects the embedded table.
func LoadRuleTable(path string) (*RuleTable, error) {
	if path == "" {
		return DefaultRuleTable()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Reason: "reading rule table", Err: err}
	}
	return ParseRuleTable(data, path)
}

// ParseRuleTable decodes and validates a rule table. source names the
// origin in error messages.
func ParseRuleTable(data []byte, source string) (*RuleTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ConfigError{Source: source, Reason: "rule table is empty"}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t RuleTable
	if err := dec.Decode(&t); err != nil {
		return nil, &ConfigError{Source: source, Reason: "decoding rule table", Err: err}
	}
	if err := t.compile(source); err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveRuleTable writes t to path as YAML.
func SaveRuleTable(t *RuleTable, path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling rule table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rule table %s: %w", path, err)
	}
	return nil
}

func (t *RuleTable) compile(source string) error {
	bad := func(format string, args ...any) error {
		return &ConfigError{Source: source, Reason: fmt.Sprintf(format, args...)}
	}

	if t.Version < 1 {
		return bad("version must be at least 1")
	}
	if len(t.Rules) == 0 {
		return bad("no rules defined")
	}
	if t.DefaultTagWeight <= 0 {
		t.DefaultTagWeight = 1
	}

	t.tagIndex = make(map[types.RiskTag]int, len(t.Tags))
	for i, td := range t.Tags {
		if td.Name == "" {
			return bad("tag %d has no name", i+1)
		}
		if td.Weight < 0 {
			return bad("tag %s has a negative weight", td.Name)
		}
		if _, dup := t.tagIndex[td.Name]; dup {
			return bad("tag %s defined twice", td.Name)
		}
		t.tagIndex[td.Name] = i
	}

	t.matchers = t.matchers[:0]
	for i, r := range t.Rules {
		if r.Phrase == "" {
			return bad("rule %d has an empty phrase", i+1)
		}
		if r.Weight <= 0 {
			return bad("rule %q must have a positive weight", r.Phrase)
		}
		if len(r.Tags) == 0 {
			return bad("rule %q has no tags", r.Phrase)
		}
		for _, tag := range r.Tags {
			if tag == "" {
				return bad("rule %q has an empty tag", r.Phrase)
			}
		}
		t.matchers = append(t.matchers, matcher{needle: fold(r.Phrase), tags: r.Tags, weight: r.Weight})
	}

	for _, g := range t.TokenGroups {
		if g.Tag == "" {
			return bad("token group %q has no tag", g.Name)
		}
		if g.Weight <= 0 {
			return bad("token group %q must have a positive weight", g.Name)
		}
		for _, tok := range g.Tokens {
			if tok == "" {
				return bad("token group %q has an empty token", g.Name)
			}
			t.matchers = append(t.matchers, matcher{needle: fold(tok), tags: []types.RiskTag{g.Tag}, weight: g.Weight})
		}
	}

	if t.Mitigation.Factor <= 0 || t.Mitigation.Factor > 1 {
		return bad("mitigation factor must be in (0, 1], got %v", t.Mitigation.Factor)
	}
	t.mitigators = make([]string, len(t.Mitigation.Phrases))
	for i, p := range t.Mitigation.Phrases {
		t.mitigators[i] = fold(p)
	}

	if t.Bands.Medium <= 0 || t.Bands.High < t.Bands.Medium {
		return bad("bands need 0 < medium <= high")
	}

	for _, regime := range []types.ScoringRegime{types.RegimeBanded, types.RegimeWeighted} {
		s, ok := t.SeverityBands[regime]
		if !ok {
			return bad("no severity thresholds for the %s regime", regime)
		}
		if s.Low > s.Medium {
			return bad("severity thresholds for %s need low <= medium", regime)
		}
		preset, ok := t.DefaultRating[regime]
		if !ok {
			return bad("no default rating preset for the %s regime", regime)
		}
		if _, ok := t.Ratings[preset]; !ok {
			return bad("default rating preset %q for %s is not defined", preset, regime)
		}
	}

	for name, r := range t.Ratings {
		if !(r.A <= r.B && r.B <= r.C) {
			return bad("rating preset %q needs a <= b <= c", name)
		}
	}
	return nil
}

// TagWeight returns the weighted-regime weight of tag.
func (t *RuleTable) TagWeight(tag types.RiskTag) float64 {
	if i, ok := t.tagIndex[tag]; ok && t.Tags[i].Weight > 0 {
		return t.Tags[i].Weight
	}
	return t.DefaultTagWeight
}

// Preset returns the named rating thresholds. An empty name picks the
// regime's default preset.
func (t *RuleTable) Preset(name string, regime types.ScoringRegime) (string, RatingThresholds, error) {
	if name == "" {
		name = t.DefaultRating[regime]
	}
	r, ok := t.Ratings[name]
	if !ok {
		return "", RatingThresholds{}, &ConfigError{Source: "scoring.rating_preset", Reason: fmt.Sprintf("unknown rating preset %q", name)}
	}
	return name, r, nil
}

// PresetNames lists the defined rating presets, sorted.
func (t *RuleTable) PresetNames() []string {
	names := make([]string, 0, len(t.Ratings))
	for n := range t.Ratings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// Vocabulary returns every lowercase token already present in rule phrases
// and token groups.
func (t *RuleTable) Vocabulary() map[string]bool {
	vocab := make(map[string]bool)
	for _, m := range t.matchers {
		for _, tok := range tokenSplit.Split(m.needle, -1) {
			if tok != "" {
				vocab[tok] = true
			}
		}
	}
	return vocab
}

// WithTokenGroups returns a new table, one version up, whose token groups
// are replaced by groups. t itself is left untouched.
func (t *RuleTable) WithTokenGroups(groups []TokenGroup) (*RuleTable, error) {
	next := &RuleTable{
		Version:          t.Version + 1,
		DefaultTagWeight: t.DefaultTagWeight,
		Tags:             append([]TagDef(nil), t.Tags...),
		Rules:            append([]Rule(nil), t.Rules...),
		TokenGroups:      groups,
		Mitigation: Mitigation{
			Factor:  t.Mitigation.Factor,
			Phrases: append([]string(nil), t.Mitigation.Phrases...),
		},
		Bands:         t.Bands,
		SeverityBands: make(map[types.ScoringRegime]SeverityThresholds, len(t.SeverityBands)),
		Ratings:       make(map[string]RatingThresholds, len(t.Ratings)),
		DefaultRating: make(map[types.ScoringRegime]string, len(t.DefaultRating)),
	}
	for k, v := range t.SeverityBands {
		next.SeverityBands[k] = v
	}
	for k, v := range t.Ratings {
		next.Ratings[k] = v
	}
	for k, v := range t.DefaultRating {
		next.DefaultRating[k] = v
	}
	if err := next.compile(fmt.Sprintf("rule table v%d", next.Version)); err != nil {
		return nil, err
	}
	return next, nil
}

// fold lowercases s for caseless comparison. A Caser is not safe for
// concurrent use, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
