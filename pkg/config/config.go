// Package config loads engine-tunable knobs from environment variables and
// an optional YAML override file into a Config struct with nested sections,
// a LoadFromEnv constructor, and a Validate method.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatcherConfig mirrors pkg/matcher.Config's tunables.
type MatcherConfig struct {
	CaseInsensitiveLabels bool `yaml:"caseInsensitiveLabels"`
	MaxPathDepth          int  `yaml:"maxPathDepth"`
	MaxPathResults        int  `yaml:"maxPathResults"`
}

// EvaluatorConfig mirrors pkg/expr.Evaluator's tunables.
type EvaluatorConfig struct {
	NumericCoercion bool `yaml:"numericCoercion"`
}

// ActionsConfig selects the id-generator strategy pkg/actions uses for
// CreateNode.
type ActionsConfig struct {
	// IDGenerator is "counter" (default) or "uuid".
	IDGenerator string `yaml:"idGenerator"`
}

// ExecutorConfig mirrors pkg/executor.Options, the engine's default failure
// policy when a rule does not specify one explicitly.
type ExecutorConfig struct {
	ValidateBeforeExecute bool `yaml:"validateBeforeExecute"`
	ContinueOnFailure     bool `yaml:"continueOnFailure"`
	RollbackOnFailure     bool `yaml:"rollbackOnFailure"`
}

// Config holds every engine-tunable knob, loaded from environment variables
// and optionally overridden by a YAML file.
type Config struct {
	Matcher   MatcherConfig   `yaml:"matcher"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Actions   ActionsConfig   `yaml:"actions"`
	Executor  ExecutorConfig  `yaml:"executor"`
}

// LoadFromEnv builds a Config from GRAPHRULES_* environment variables,
// falling back to matcher/evaluator/executor's documented defaults for
// anything unset.
func LoadFromEnv() *Config {
	return &Config{
		Matcher: MatcherConfig{
			CaseInsensitiveLabels: getEnvBool("GRAPHRULES_MATCHER_CASE_INSENSITIVE_LABELS", true),
			MaxPathDepth:          getEnvInt("GRAPHRULES_MATCHER_MAX_PATH_DEPTH", 10),
			MaxPathResults:        getEnvInt("GRAPHRULES_MATCHER_MAX_PATH_RESULTS", 1000),
		},
		Evaluator: EvaluatorConfig{
			NumericCoercion: getEnvBool("GRAPHRULES_EVALUATOR_NUMERIC_COERCION", false),
		},
		Actions: ActionsConfig{
			IDGenerator: getEnv("GRAPHRULES_ACTIONS_ID_GENERATOR", "counter"),
		},
		Executor: ExecutorConfig{
			ValidateBeforeExecute: getEnvBool("GRAPHRULES_EXECUTOR_VALIDATE_BEFORE_EXECUTE", false),
			ContinueOnFailure:     getEnvBool("GRAPHRULES_EXECUTOR_CONTINUE_ON_FAILURE", false),
			RollbackOnFailure:     getEnvBool("GRAPHRULES_EXECUTOR_ROLLBACK_ON_FAILURE", false),
		},
	}
}

// LoadFromFile reads path as YAML and merges it over a LoadFromEnv baseline,
// letting a deployment pin config in a `graphrules.yaml` alongside its rule
// documents without giving up environment-variable overrides for secrets or
// per-host tuning.
func LoadFromFile(path string) (*Config, error) {
	cfg := LoadFromEnv()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate reports whether cfg describes a usable engine configuration.
func (c *Config) Validate() error {
	if c.Matcher.MaxPathDepth <= 0 {
		return fmt.Errorf("matcher.maxPathDepth must be positive, got %d", c.Matcher.MaxPathDepth)
	}
	if c.Matcher.MaxPathResults <= 0 {
		return fmt.Errorf("matcher.maxPathResults must be positive, got %d", c.Matcher.MaxPathResults)
	}
	switch c.Actions.IDGenerator {
	case "counter", "uuid":
	default:
		return fmt.Errorf("actions.idGenerator must be %q or %q, got %q", "counter", "uuid", c.Actions.IDGenerator)
	}
	if c.Executor.RollbackOnFailure && c.Executor.ContinueOnFailure {
		// Both fields are individually legal and rollback always wins when
		// set together, but it is almost always a mistake to set the engine
		// default this way rather than as a per-rule override.
		return fmt.Errorf("executor.rollbackOnFailure and executor.continueOnFailure are both set; rollback always wins, continueOnFailure has no effect")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
