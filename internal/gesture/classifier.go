package gesture

// Unknown is reported when no rule matches with enough confidence.
const Unknown = "unknown"

// DefaultConfidenceFloor is the minimum rule confidence a sign is reported with.
const DefaultConfidenceFloor = 0.4

// Classification is the outcome of one classifier run.
type Classification struct {
	Sign       string  `json:"sign"`
	Confidence float64 `json:"confidence"`
}

// Known reports whether the classification names a vocabulary sign.
func (c Classification) Known() bool {
	return c.Sign != Unknown
}

// Classifier evaluates vocabulary rules in priority order and returns the
// first match. Rule order is significant: a general rule listed before a
// specific one shadows it.
type Classifier struct {
	rules []Rule
	floor float64
}

// NewClassifier compiles a classifier over vocabulary v. A nil vocabulary
// uses DefaultVocabulary.
func NewClassifier(v *Vocabulary, floor float64) *Classifier {
	if v == nil {
		v = DefaultVocabulary()
	}
	return NewRuleClassifier(v.Rules(), floor)
}

// NewRuleClassifier builds a classifier over an explicit rule list.
func NewRuleClassifier(rules []Rule, floor float64) *Classifier {
	return &Classifier{rules: rules, floor: floor}
}

// Classify returns the first matching rule's sign and confidence, or
// Unknown with zero confidence when nothing matches or the first match is
// weaker than the floor.
func (c *Classifier) Classify(f FeatureSet) Classification {
	for _, r := range c.rules {
		conf, ok := r.Match(f)
		if !ok {
			continue
		}
		if conf < c.floor {
			break
		}
		return Classification{Sign: r.Sign, Confidence: conf}
	}
	return Classification{Sign: Unknown}
}
