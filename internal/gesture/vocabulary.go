package gesture

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// SignPatternSpec is one vocabulary entry: the sign identifier, the words
// used to render it in a transcript and the patterns it requires.
type SignPatternSpec struct {
	ID         string   `yaml:"id" json:"id"`
	Keywords   []string `yaml:"keywords" json:"keywords"`
	Patterns   []string `yaml:"patterns" json:"patterns"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
}

// Vocabulary is the read-only catalog of recognizable signs. It is safe for
// concurrent use.
type Vocabulary struct {
	signs    []SignPatternSpec
	index    map[string]int
	patterns map[string]Pattern
	rules    []Rule
}

type vocabularyFile struct {
	Thresholds struct {
		ExtendedMin float64 `yaml:"extended_min"`
		CurledMax   float64 `yaml:"curled_max"`
	} `yaml:"thresholds"`
	Patterns []patternSpec     `yaml:"patterns"`
	Signs    []SignPatternSpec `yaml:"signs"`
}

type patternSpec struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Extended []string     `yaml:"extended"`
	Curled   []string     `yaml:"curled"`
	Degrees  [][2]float64 `yaml:"degrees"`
	MinX     *float64     `yaml:"min_x"`
	MaxX     *float64     `yaml:"max_x"`
	MinY     *float64     `yaml:"min_y"`
	MaxY     *float64     `yaml:"max_y"`
	Min      *float64     `yaml:"min"`
	Max      *float64     `yaml:"max"`
}

var (
	defaultVocabulary     *Vocabulary
	defaultVocabularyOnce sync.Once
)

// DefaultVocabulary returns the built-in vocabulary. Panics if the embedded
// definition is invalid, which is caught by the package tests.
func DefaultVocabulary() *Vocabulary {
	defaultVocabularyOnce.Do(func() {
		v, err := LoadVocabulary(bytes.NewReader(defaultVocabularyYAML))
		if err != nil {
			panic(fmt.Sprintf("gesture: embedded vocabulary: %v", err))
		}
		defaultVocabulary = v
	})
	return defaultVocabulary
}

// LoadVocabularyFile reads a vocabulary definition from path.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: open %q: %w", path, err)
	}
	defer f.Close()

	v, err := LoadVocabulary(f)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %q: %w", path, err)
	}
	return v, nil
}

// LoadVocabulary decodes and compiles a YAML vocabulary definition.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	var file vocabularyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return compile(file)
}

func compile(file vocabularyFile) (*Vocabulary, error) {
	var errs []error

	extendedMin := file.Thresholds.ExtendedMin
	curledMax := file.Thresholds.CurledMax
	if extendedMin <= 0 || extendedMin > 1 {
		errs = append(errs, fmt.Errorf("thresholds.extended_min %v must be in (0,1]", extendedMin))
	}
	if curledMax < 0 || curledMax >= 1 {
		errs = append(errs, fmt.Errorf("thresholds.curled_max %v must be in [0,1)", curledMax))
	}

	patterns := make(map[string]Pattern, len(file.Patterns))
	for _, ps := range file.Patterns {
		if ps.Name == "" {
			errs = append(errs, errors.New("pattern without name"))
			continue
		}
		if _, dup := patterns[ps.Name]; dup {
			errs = append(errs, fmt.Errorf("pattern %q defined twice", ps.Name))
			continue
		}
		p, err := ps.build(extendedMin, curledMax)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", ps.Name, err))
			continue
		}
		patterns[ps.Name] = p
	}

	v := &Vocabulary{
		index:    make(map[string]int, len(file.Signs)),
		patterns: patterns,
	}
	for _, s := range file.Signs {
		if s.ID == "" || s.ID == Unknown {
			errs = append(errs, fmt.Errorf("invalid sign id %q", s.ID))
			continue
		}
		if _, dup := v.index[s.ID]; dup {
			errs = append(errs, fmt.Errorf("sign %q defined twice", s.ID))
			continue
		}
		if s.Confidence < 0 || s.Confidence > 1 {
			errs = append(errs, fmt.Errorf("sign %q: confidence %v must be in [0,1]", s.ID, s.Confidence))
		}
		if len(s.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("sign %q has no patterns", s.ID))
		}

		rule := Rule{Sign: s.ID, Confidence: s.Confidence}
		for _, name := range s.Patterns {
			p, ok := patterns[name]
			if !ok {
				errs = append(errs, fmt.Errorf("sign %q: unknown pattern %q", s.ID, name))
				continue
			}
			rule.Patterns = append(rule.Patterns, p)
		}

		v.index[s.ID] = len(v.signs)
		v.signs = append(v.signs, s)
		v.rules = append(v.rules, rule)
	}

	if len(v.signs) == 0 {
		errs = append(errs, errors.New("vocabulary has no signs"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return v, nil
}

func (ps patternSpec) build(extendedMin, curledMax float64) (Pattern, error) {
	switch ps.Kind {
	case "fingers":
		extended, err := parseDigits(ps.Extended)
		if err != nil {
			return nil, err
		}
		curled, err := parseDigits(ps.Curled)
		if err != nil {
			return nil, err
		}
		if len(extended)+len(curled) == 0 {
			return nil, errors.New("fingers pattern lists no digits")
		}
		return FingerPattern{
			ID:          ps.Name,
			Extended:    extended,
			Curled:      curled,
			ExtendedMin: extendedMin,
			CurledMax:   curledMax,
		}, nil

	case "orientation":
		if len(ps.Degrees) == 0 {
			return nil, errors.New("orientation pattern has no ranges")
		}
		p := OrientationPattern{ID: ps.Name}
		for _, d := range ps.Degrees {
			if d[0] > d[1] {
				return nil, fmt.Errorf("range %v is inverted", d)
			}
			p.Ranges = append(p.Ranges, Range{Min: radians(d[0]), Max: radians(d[1])})
		}
		return p, nil

	case "position":
		return PositionPattern{
			ID: ps.Name,
			X:  Range{Min: orDefault(ps.MinX, math.Inf(-1)), Max: orDefault(ps.MaxX, math.Inf(1))},
			Y:  Range{Min: orDefault(ps.MinY, math.Inf(-1)), Max: orDefault(ps.MaxY, math.Inf(1))},
		}, nil

	case "movement":
		p := MovementPattern{
			ID:  ps.Name,
			Min: orDefault(ps.Min, 0),
			Max: orDefault(ps.Max, math.Inf(1)),
		}
		if p.Min >= p.Max {
			return nil, fmt.Errorf("movement bounds [%v,%v) are empty", p.Min, p.Max)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown pattern kind %q", ps.Kind)
	}
}

func parseDigits(names []string) ([]detector.Digit, error) {
	digits := make([]detector.Digit, 0, len(names))
	for _, n := range names {
		d, ok := detector.ParseDigit(strings.ToLower(n))
		if !ok {
			return nil, fmt.Errorf("unknown digit %q", n)
		}
		digits = append(digits, d)
	}
	return digits, nil
}

func radians(deg float64) float64 {
	// ±180 map exactly onto ±π so that atan2 results at the seam match.
	switch deg {
	case 180:
		return math.Pi
	case -180:
		return -math.Pi
	}
	return deg * math.Pi / 180
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Signs returns the vocabulary entries in priority order.
func (v *Vocabulary) Signs() []SignPatternSpec {
	out := make([]SignPatternSpec, len(v.signs))
	copy(out, v.signs)
	return out
}

// Sign looks up a vocabulary entry by identifier.
func (v *Vocabulary) Sign(id string) (SignPatternSpec, bool) {
	i, ok := v.index[id]
	if !ok {
		return SignPatternSpec{}, false
	}
	return v.signs[i], true
}

// Rules returns the compiled rules in priority order.
func (v *Vocabulary) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

// Pattern returns a compiled pattern by name.
func (v *Vocabulary) Pattern(name string) (Pattern, bool) {
	p, ok := v.patterns[name]
	return p, ok
}

// Keyword returns the word used to render sign in a transcript: the first
// registered keyword, or the identifier with underscores turned into spaces.
func (v *Vocabulary) Keyword(sign string) string {
	if v != nil {
		if s, ok := v.Sign(sign); ok && len(s.Keywords) > 0 {
			return s.Keywords[0]
		}
	}
	return strings.ReplaceAll(sign, "_", " ")
}
