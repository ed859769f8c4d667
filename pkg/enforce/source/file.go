package source

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"arbiter-hq/arbiter/pkg/enforce"
)

// ruleFile is the on-disk shape of a rule set.
type ruleFile struct {
	Rules []enforce.Rule `yaml:"rules"`
}

// FileSource loads rule sets from a single YAML file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based rule source. The path must point at a
// YAML file with a top-level "rules" list.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "enforce.source"),
	}
}

// Load reads and validates the rule file, returning a sealed rule set.
func (s *FileSource) Load() (*enforce.RuleSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %q: %w", s.path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %q: %w", s.path, err)
	}

	rules, err := enforce.NewRuleSet(file.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid rule file %q: %w", s.path, err)
	}

	s.logger.Info("loaded rule set",
		"path", s.path,
		"rule_count", rules.Len(),
	)
	return rules, nil
}

// LoadOrDefault loads the rule file when a path is configured and falls
// back to the compiled-in default rules otherwise.
func LoadOrDefault(path string, logger *slog.Logger) (*enforce.RuleSet, error) {
	if path == "" {
		return enforce.NewRuleSet(enforce.DefaultRules())
	}
	return NewFileSource(path, logger).Load()
}
