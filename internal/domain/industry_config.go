package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultThresholdRule = "days_absent_threshold"
	DefaultMaxListSize   = 3

	RuleCooldownDays = "cooldown_days"
	RuleMaxListSize  = "max_list_size"
)

// IndustryConfig is the single internal representation of a tenant's
// candidate-selection rules. It is only ever built by NormalizeConfig.
type IndustryConfig struct {
	Rules         map[string]float64 `json:"rules"`
	ThresholdRule string             `json:"threshold_rule"`
	CooldownDays  int                `json:"cooldown_days"`
	MaxListSize   int                `json:"max_list_size"`

	// Defaulted names the settings that were filled from an industry preset
	// or a package default instead of the tenant's own configuration.
	Defaulted []string `json:"-"`
}

// Threshold returns the strategy-candidate threshold in days.
func (c IndustryConfig) Threshold() float64 {
	return c.Rules[c.ThresholdRule]
}

// Validate checks the invariants Compute relies on.
func (c IndustryConfig) Validate() error {
	if c.ThresholdRule == "" {
		return &ConfigurationError{Rule: "threshold_rule", Reason: "is empty"}
	}
	v, ok := c.Rules[c.ThresholdRule]
	if !ok {
		return &ConfigurationError{Rule: c.ThresholdRule, Reason: "is required"}
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigurationError{Rule: c.ThresholdRule, Reason: fmt.Sprintf("must be a non-negative number, got %v", v)}
	}
	if c.CooldownDays < 0 {
		return &ConfigurationError{Rule: RuleCooldownDays, Reason: fmt.Sprintf("must be >= 0, got %d", c.CooldownDays)}
	}
	if c.MaxListSize <= 0 {
		return &ConfigurationError{Rule: RuleMaxListSize, Reason: fmt.Sprintf("must be > 0, got %d", c.MaxListSize)}
	}
	return nil
}

type industryPreset struct {
	rules        map[string]float64
	cooldownDays int
}

var industryPresets = map[string]industryPreset{
	"beauty":     {rules: map[string]float64{DefaultThresholdRule: 60}, cooldownDays: 30},
	"automotive": {rules: map[string]float64{DefaultThresholdRule: 180}, cooldownDays: 45},
	"fitness":    {rules: map[string]float64{DefaultThresholdRule: 21}, cooldownDays: 14},
	"dental":     {rules: map[string]float64{DefaultThresholdRule: 180}, cooldownDays: 60},
}

// KnownIndustries lists the industries that ship with a rule preset.
func KnownIndustries() []string {
	out := make([]string, 0, len(industryPresets))
	for k := range industryPresets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// rawConfig is the stored shape. Rules has been persisted both as a mapping
// and as a list of name/value pairs.
type rawConfig struct {
	ThresholdRule string          `json:"threshold_rule"`
	Rules         json.RawMessage `json:"rules"`
	CooldownDays  json.RawMessage `json:"cooldown_days"`
	MaxListSize   json.RawMessage `json:"max_list_size"`
}

type ruleItem struct {
	Name  string          `json:"name"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// NormalizeConfig turns a tenant's stored configuration into an IndustryConfig.
// Industry presets fill rules the tenant did not set; every value taken from a
// preset or default is listed in Defaulted so callers can log it.
func NormalizeConfig(industry string, raw []byte) (IndustryConfig, error) {
	cfg := IndustryConfig{
		Rules:         map[string]float64{},
		ThresholdRule: DefaultThresholdRule,
		CooldownDays:  -1,
	}

	var rc rawConfig
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &rc); err != nil {
			return IndustryConfig{}, &ConfigurationError{Rule: "config", Reason: fmt.Sprintf("malformed JSON: %v", err)}
		}
	}

	if rc.ThresholdRule != "" {
		cfg.ThresholdRule = rc.ThresholdRule
	}

	tenantRules, err := normalizeRules(rc.Rules)
	if err != nil {
		return IndustryConfig{}, err
	}

	if len(rc.CooldownDays) > 0 {
		v, err := parseNumber(RuleCooldownDays, rc.CooldownDays)
		if err != nil {
			return IndustryConfig{}, err
		}
		if cfg.CooldownDays, err = wholeDays(RuleCooldownDays, v); err != nil {
			return IndustryConfig{}, err
		}
	} else if v, ok := tenantRules[RuleCooldownDays]; ok {
		if cfg.CooldownDays, err = wholeDays(RuleCooldownDays, v); err != nil {
			return IndustryConfig{}, err
		}
	}
	delete(tenantRules, RuleCooldownDays)

	maxSet := false
	if len(rc.MaxListSize) > 0 {
		v, err := parseNumber(RuleMaxListSize, rc.MaxListSize)
		if err != nil {
			return IndustryConfig{}, err
		}
		if cfg.MaxListSize, err = wholeDays(RuleMaxListSize, v); err != nil {
			return IndustryConfig{}, err
		}
		maxSet = true
	} else if v, ok := tenantRules[RuleMaxListSize]; ok {
		if cfg.MaxListSize, err = wholeDays(RuleMaxListSize, v); err != nil {
			return IndustryConfig{}, err
		}
		maxSet = true
	}
	delete(tenantRules, RuleMaxListSize)
	if maxSet && cfg.MaxListSize <= 0 {
		return IndustryConfig{}, &ConfigurationError{Rule: RuleMaxListSize, Reason: fmt.Sprintf("must be > 0, got %d", cfg.MaxListSize)}
	}

	preset, hasPreset := industryPresets[strings.ToLower(strings.TrimSpace(industry))]
	if hasPreset {
		names := make([]string, 0, len(preset.rules))
		for name := range preset.rules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := tenantRules[name]; !ok {
				cfg.Rules[name] = preset.rules[name]
				cfg.Defaulted = append(cfg.Defaulted, name)
			}
		}
	}
	for name, v := range tenantRules {
		cfg.Rules[name] = v
	}

	if cfg.CooldownDays < 0 {
		if !hasPreset {
			return IndustryConfig{}, &ConfigurationError{Rule: RuleCooldownDays, Reason: "is required"}
		}
		cfg.CooldownDays = preset.cooldownDays
		cfg.Defaulted = append(cfg.Defaulted, RuleCooldownDays)
	}

	if cfg.MaxListSize == 0 {
		cfg.MaxListSize = DefaultMaxListSize
		cfg.Defaulted = append(cfg.Defaulted, RuleMaxListSize)
	}

	if err := cfg.Validate(); err != nil {
		return IndustryConfig{}, err
	}
	return cfg, nil
}

// Encode returns the canonical mapping-shaped JSON for persisting cfg.
func (c IndustryConfig) Encode() ([]byte, error) {
	return json.Marshal(c)
}

func normalizeRules(raw json.RawMessage) (map[string]float64, error) {
	out := map[string]float64{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}

	switch trimmed[0] {
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, &ConfigurationError{Rule: "rules", Reason: fmt.Sprintf("malformed mapping: %v", err)}
		}
		for name, v := range m {
			f, err := parseNumber(name, v)
			if err != nil {
				return nil, err
			}
			out[name] = f
		}
	case '[':
		var items []ruleItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &ConfigurationError{Rule: "rules", Reason: fmt.Sprintf("malformed list: %v", err)}
		}
		for i, item := range items {
			name := item.Name
			if name == "" {
				name = item.Key
			}
			if name == "" {
				return nil, &ConfigurationError{Rule: "rules", Reason: fmt.Sprintf("entry %d has no name", i)}
			}
			if _, dup := out[name]; dup {
				return nil, &ConfigurationError{Rule: name, Reason: "is defined more than once"}
			}
			f, err := parseNumber(name, item.Value)
			if err != nil {
				return nil, err
			}
			out[name] = f
		}
	default:
		return nil, &ConfigurationError{Rule: "rules", Reason: "must be a mapping or a list"}
	}
	return out, nil
}

// parseNumber accepts a JSON number or a numeric string.
func parseNumber(rule string, raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, &ConfigurationError{Rule: rule, Reason: fmt.Sprintf("must be numeric, got %s", string(raw))}
}

func wholeDays(rule string, v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &ConfigurationError{Rule: rule, Reason: fmt.Sprintf("must be a whole number, got %v", v)}
	}
	if v < 0 {
		return 0, &ConfigurationError{Rule: rule, Reason: fmt.Sprintf("must be >= 0, got %v", v)}
	}
	return int(v), nil
}
