// Copyright 2025 Atomforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// ValidatorConfig holds document pre-screening settings.
type ValidatorConfig struct {
	// Threshold is the minimum score (0-100) to accept a document.
	// Default: 60.
	Threshold float64

	// AllowedLanguages lists acceptable detected languages.
	// Default: ["en"].
	AllowedLanguages []string

	// CacheTTL is how long verdicts stay cached. Default: 30 days.
	CacheTTL time.Duration

	// SubjectKeywords maps a subject label to the terms that indicate it.
	// A document matching no subject is considered not relevant.
	SubjectKeywords map[string][]string

	// SampleLimit caps how much of the document the validator inspects.
	// Default: 8192 bytes.
	SampleLimit int
}

// DefaultValidatorConfig returns the default pre-screening settings.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		Threshold:        60,
		AllowedLanguages: []string{"en"},
		CacheTTL:         30 * 24 * time.Hour,
		SubjectKeywords: map[string][]string{
			"automation":  {"plc", "scada", "hmi", "fieldbus", "profibus", "profinet", "modbus"},
			"drives":      {"drive", "inverter", "vfd", "motor", "servo", "torque", "rpm"},
			"electrical":  {"voltage", "current", "relay", "circuit", "breaker", "transformer", "phase"},
			"maintenance": {"maintenance", "troubleshooting", "diagnostic", "fault", "alarm", "repair", "calibration"},
			"process":     {"sensor", "actuator", "valve", "pump", "pressure", "temperature", "flow"},
		},
		SampleLimit: 8192,
	}
}

// Validate checks that the configuration is valid.
func (c *ValidatorConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return errors.New("validator config: Threshold must be between 0 and 100")
	}
	if len(c.AllowedLanguages) == 0 {
		return errors.New("validator config: AllowedLanguages must not be empty")
	}
	if c.CacheTTL <= 0 {
		return errors.New("validator config: CacheTTL must be positive")
	}
	if c.SampleLimit <= 0 {
		return errors.New("validator config: SampleLimit must be positive")
	}
	return nil
}

// Validator is the cheap pre-screening gate that rejects non-relevant or
// wrong-language sources before the expensive pipeline stages run.
// Verdicts are cached by source ID; a cache hit skips re-validation.
type Validator struct {
	cache  storage.ValidationRepository
	config ValidatorConfig
	now    func() time.Time
	logger *slog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorConfig overrides the default settings.
func WithValidatorConfig(config ValidatorConfig) ValidatorOption {
	return func(v *Validator) {
		v.config = config
	}
}

// WithValidatorClock sets the clock.
func WithValidatorClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewValidator creates a Validator with a verdict cache.
func NewValidator(cache storage.ValidationRepository, opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{
		cache:  cache,
		config: DefaultValidatorConfig(),
		now:    time.Now,
		logger: slog.Default().With("component", "validator"),
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.config.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate screens a document sample and returns the verdict. The decision
// is fail-closed: anything that cannot be positively scored is rejected.
// Cache read failures fall through to a fresh check; cache write failures
// are logged only.
func (v *Validator) Validate(ctx context.Context, sourceID core.ID, sample string) (*core.Verdict, error) {
	cached, err := v.cache.GetVerdict(ctx, sourceID)
	if err == nil {
		v.logger.Debug("verdict cache hit", "source_id", sourceID, "accept", cached.Accept)
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		v.logger.Warn("verdict cache read failed", "source_id", sourceID, "err", err)
	}

	verdict := v.check(sourceID, sample)

	if err := v.cache.PutVerdict(ctx, verdict, v.config.CacheTTL); err != nil {
		v.logger.Warn("verdict cache write failed", "source_id", sourceID, "err", err)
	}
	return verdict, nil
}

// check scores a sample without touching the cache.
func (v *Validator) check(sourceID core.ID, sample string) *core.Verdict {
	verdict := &core.Verdict{
		SourceID:  sourceID,
		CheckedAt: v.now().UTC(),
	}

	sample = strings.TrimSpace(sample)
	if sample == "" {
		verdict.Reason = "empty document"
		return verdict
	}
	if len(sample) > v.config.SampleLimit {
		sample = sample[:v.config.SampleLimit]
	}

	printable := printableRatio(sample)
	wordlike := wordlikeRatio(sample)
	subject, relevance := v.detectSubject(sample)
	language := detectLanguage(sample)

	// Text integrity carries 60 points, subject relevance the other 40.
	score := printable*30 + wordlike*30 + relevance*40
	verdict.Score = score
	verdict.Language = language
	verdict.Subject = subject

	switch {
	case score < v.config.Threshold:
		verdict.Reason = "score below threshold"
	case subject == "":
		verdict.Reason = "no relevant subject detected"
	case !slices.Contains(v.config.AllowedLanguages, language):
		verdict.Reason = "language not allowed: " + language
	default:
		verdict.Accept = true
	}

	return verdict
}

// detectSubject returns the best-matching subject label and a relevance
// weight in [0,1] derived from keyword hits.
func (v *Validator) detectSubject(sample string) (string, float64) {
	lower := strings.ToLower(sample)
	best := ""
	bestHits := 0
	for subject, keywords := range v.config.SubjectKeywords {
		hits := 0
		for _, kw := range keywords {
			hits += strings.Count(lower, kw)
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && subject < best) {
			best = subject
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return "", 0
	}
	// Saturate: 5+ keyword hits count as fully relevant.
	relevance := float64(bestHits) / 5
	if relevance > 1 {
		relevance = 1
	}
	return best, relevance
}

// printableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars < U+0020 (except \n\r\t), U+FFFD.
func printableRatio(text string) float64 {
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	// Replacement character
	if r == 0xFFFD {
		return true
	}
	// Control chars except whitespace
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the ratio of word-like tokens (length 2-15) to total tokens.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}

// stopwords per language, used for cheap language detection.
var stopwords = map[string][]string{
	"en": {"the", "and", "for", "with", "this", "that", "from", "are", "not"},
	"de": {"der", "die", "das", "und", "nicht", "mit", "ist", "von", "ein"},
	"fr": {"le", "la", "les", "des", "est", "une", "dans", "pour", "pas"},
	"es": {"el", "los", "las", "una", "por", "para", "con", "este", "esta"},
}

// detectLanguage picks the language whose stopwords occur most often as
// whole tokens. Returns "unknown" when nothing matches.
func detectLanguage(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return "unknown"
	}

	counts := make(map[string]int, len(stopwords))
	for _, token := range tokens {
		token = strings.Trim(token, ".,;:!?()\"'")
		for lang, words := range stopwords {
			if slices.Contains(words, token) {
				counts[lang]++
			}
		}
	}

	best := "unknown"
	bestCount := 0
	for lang, count := range counts {
		if count > bestCount || (count == bestCount && count > 0 && lang < best) {
			best = lang
			bestCount = count
		}
	}
	return best
}
