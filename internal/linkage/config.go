// Package linkage deduplicates entity tables with a Fellegi-Sunter model:
// blocking proposes candidate pairs, per-column comparison levels score them,
// EM fits the match weights and union-find clusters the matches.
package linkage

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/table"
)

//go:embed configs/*.yaml
var embedded embed.FS

// Comparison methods.
const (
	MethodExact       = "exact"
	MethodJaroWinkler = "jaro_winkler"
	MethodLevenshtein = "levenshtein"
	MethodJaccard     = "jaccard"
)

// Block key transforms.
const (
	TransformNone      = ""
	TransformMetaphone = "metaphone"
	TransformInitial   = "initial"
)

// Config is the linkage model of one entity table.
type Config struct {
	Table         string         `yaml:"table"`
	IDColumn      string         `yaml:"id_column"`
	BlockingRules []BlockingRule `yaml:"blocking_rules"`
	Comparisons   []Comparison   `yaml:"comparisons"`

	// MatchThreshold is the posterior at or above which a pair is merged.
	MatchThreshold float64 `yaml:"match_threshold"`
	// MatchPrior is the starting share of blocked pairs that are matches.
	MatchPrior    float64 `yaml:"match_prior"`
	MaxIterations int     `yaml:"max_iterations"`
	EMConvergence float64 `yaml:"em_convergence"`
	// PriorWeight is the number of pseudo-observations backing the m, u and
	// match priors.
	PriorWeight  float64 `yaml:"prior_weight"`
	MaxBlockSize int     `yaml:"max_block_size"`
	USampleSize  int     `yaml:"u_sample_size"`
	Seed         int64   `yaml:"seed"`
}

// BlockingRule is a conjunction of equality predicates. Rows with a null key
// column are never blocked by the rule.
type BlockingRule struct {
	Name string     `yaml:"name"`
	Keys []BlockKey `yaml:"keys"`
}

// BlockKey is one equality predicate, optionally on a transformed value.
// In YAML it is either a mapping or the shorthand "column" or
// "transform(column)".
type BlockKey struct {
	Column    string `yaml:"column"`
	Transform string `yaml:"transform"`
}

var reKeyCall = regexp.MustCompile(`^\s*(\w+)\(\s*(\w+)\s*\)\s*$`)

func (k *BlockKey) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if m := reKeyCall.FindStringSubmatch(value.Value); m != nil {
			k.Transform, k.Column = m[1], m[2]
			return nil
		}
		k.Column = strings.TrimSpace(value.Value)
		return nil
	}
	type plain BlockKey
	return value.Decode((*plain)(k))
}

func (k BlockKey) String() string {
	if k.Transform == TransformNone {
		return k.Column
	}
	return k.Transform + "(" + k.Column + ")"
}

// Comparison scores agreement on one column as a level: 0 is exact
// agreement, then the nickname level when enabled, then one level per
// threshold band, and a final level for everything else.
type Comparison struct {
	Column string `yaml:"column"`
	Method string `yaml:"method"`
	// Thresholds are descending similarities for jaro_winkler and jaccard,
	// ascending maximum distances for levenshtein.
	Thresholds    []float64 `yaml:"thresholds"`
	Nicknames     bool      `yaml:"nicknames"`
	TermFrequency bool      `yaml:"term_frequency"`

	// M and U are the prior level probabilities; FixM keeps M out of EM.
	M    []float64 `yaml:"m"`
	U    []float64 `yaml:"u"`
	FixM bool      `yaml:"fix_m"`
}

// Levels returns the number of comparison levels.
func (c *Comparison) Levels() int {
	n := 2
	if c.Nicknames {
		n++
	}
	if c.Method != MethodExact {
		n += len(c.Thresholds)
	}
	return n
}

// Defaults fills unset tuning values.
func (c *Config) Defaults() {
	if c.IDColumn == "" {
		c.IDColumn = schema.ColID
	}
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.7
	}
	if c.MatchPrior == 0 {
		c.MatchPrior = 0.1
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 25
	}
	if c.EMConvergence == 0 {
		c.EMConvergence = 1e-4
	}
	if c.PriorWeight == 0 {
		c.PriorWeight = 1000
	}
	if c.MaxBlockSize == 0 {
		c.MaxBlockSize = 5000
	}
	if c.USampleSize == 0 {
		c.USampleSize = 200000
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	for i := range c.BlockingRules {
		r := &c.BlockingRules[i]
		if r.Name == "" {
			keys := make([]string, len(r.Keys))
			for j, k := range r.Keys {
				keys[j] = k.String()
			}
			r.Name = strings.Join(keys, "+")
		}
	}
	for i := range c.Comparisons {
		cmp := &c.Comparisons[i]
		if cmp.Method == "" {
			cmp.Method = MethodExact
		}
		if cmp.M == nil {
			cmp.M = defaultM(cmp.Levels())
		}
		if cmp.U == nil {
			cmp.U = defaultU(cmp.Levels())
		}
	}
}

// defaultM puts 5% on disagreement and halves the rest level by level.
func defaultM(levels int) []float64 {
	return spread(levels, 0.05, func(i int) float64 { return float64(int(1) << (levels - 2 - i)) })
}

// defaultU puts 90% on disagreement and doubles the rest level by level.
func defaultU(levels int) []float64 {
	return spread(levels, 0.9, func(i int) float64 { return float64(int(1) << i) })
}

func spread(levels int, last float64, weight func(int) float64) []float64 {
	out := make([]float64, levels)
	out[levels-1] = last
	total := 0.0
	for i := 0; i < levels-1; i++ {
		total += weight(i)
	}
	for i := 0; i < levels-1; i++ {
		out[i] = (1 - last) * weight(i) / total
	}
	return out
}

// Validate checks the configuration against the table's schema.
func (c *Config) Validate(s table.Schema) error {
	if s.Index(c.IDColumn) < 0 {
		return &errs.ConfigurationError{Kind: "id column", Name: c.IDColumn}
	}
	if len(c.BlockingRules) == 0 {
		return fmt.Errorf("linkage %s: no blocking rules", c.Table)
	}
	if len(c.Comparisons) == 0 {
		return fmt.Errorf("linkage %s: no comparisons", c.Table)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("linkage %s: match_threshold %g outside (0, 1]", c.Table, c.MatchThreshold)
	}
	if c.MatchPrior <= 0 || c.MatchPrior >= 1 {
		return fmt.Errorf("linkage %s: match_prior %g outside (0, 1)", c.Table, c.MatchPrior)
	}
	if c.PriorWeight <= 0 {
		return fmt.Errorf("linkage %s: prior_weight %g must be positive", c.Table, c.PriorWeight)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("linkage %s: max_iterations %d must be positive", c.Table, c.MaxIterations)
	}
	if c.EMConvergence <= 0 {
		return fmt.Errorf("linkage %s: em_convergence %g must be positive", c.Table, c.EMConvergence)
	}
	for _, r := range c.BlockingRules {
		if len(r.Keys) == 0 {
			return fmt.Errorf("linkage %s: blocking rule %s has no keys", c.Table, r.Name)
		}
		for _, k := range r.Keys {
			if s.Index(k.Column) < 0 {
				return &errs.ConfigurationError{Kind: "blocking column", Name: k.Column}
			}
			switch k.Transform {
			case TransformNone, TransformMetaphone, TransformInitial:
			default:
				return &errs.ConfigurationError{Kind: "block transform", Name: k.Transform}
			}
		}
	}
	for _, cmp := range c.Comparisons {
		if err := cmp.validate(s); err != nil {
			return fmt.Errorf("linkage %s: %w", c.Table, err)
		}
	}
	return nil
}

func (c *Comparison) validate(s table.Schema) error {
	if s.Index(c.Column) < 0 {
		return &errs.ConfigurationError{Kind: "comparison column", Name: c.Column}
	}
	switch c.Method {
	case MethodExact:
	case MethodJaroWinkler, MethodJaccard:
		for i := 1; i < len(c.Thresholds); i++ {
			if c.Thresholds[i] >= c.Thresholds[i-1] {
				return fmt.Errorf("%s: %s thresholds must descend", c.Column, c.Method)
			}
		}
	case MethodLevenshtein:
		for i := 1; i < len(c.Thresholds); i++ {
			if c.Thresholds[i] <= c.Thresholds[i-1] {
				return fmt.Errorf("%s: levenshtein thresholds must ascend", c.Column)
			}
		}
	default:
		return &errs.ConfigurationError{Kind: "comparison method", Name: c.Method}
	}
	n := c.Levels()
	if len(c.M) != n || len(c.U) != n {
		return fmt.Errorf("%s: %d levels but %d m and %d u priors", c.Column, n, len(c.M), len(c.U))
	}
	for l := 0; l < n; l++ {
		if c.M[l] < 0 || c.M[l] > 1 || c.U[l] < 0 || c.U[l] > 1 {
			return fmt.Errorf("%s: level %d prior outside [0, 1]", c.Column, l)
		}
	}
	return nil
}

// ParseConfig decodes a YAML linkage configuration and fills defaults.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse linkage config: %w", err)
	}
	c.Defaults()
	return &c, nil
}

// LoadConfig reads a YAML linkage configuration from disk.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read linkage config: %w", err)
	}
	return ParseConfig(data)
}

// DefaultConfig returns the built-in configuration for an entity table.
func DefaultConfig(tt schema.TableType) (*Config, error) {
	data, err := embedded.ReadFile("configs/" + string(tt) + ".yaml")
	if err != nil {
		return nil, &errs.ConfigurationError{Kind: "linkage table", Name: string(tt)}
	}
	return ParseConfig(data)
}
