package config

import (
	"fmt"

	"github.com/nace/udevbackup/internal/device"
)

// RuleSet holds the registered rules keyed by filesystem UUID
type RuleSet struct {
	rules map[string]*Rule
	order []string
}

// NewRuleSet creates an empty rule set
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]*Rule)}
}

// Register adds a rule; two rules cannot share a filesystem UUID
func (s *RuleSet) Register(r *Rule) error {
	if existing, ok := s.rules[r.FSUUID]; ok {
		return fmt.Errorf("rules %q and %q share fs_uuid %s", existing.Name, r.Name, r.FSUUID)
	}
	s.rules[r.FSUUID] = r
	s.order = append(s.order, r.FSUUID)
	return nil
}

// Get returns the rule for a filesystem UUID
func (s *RuleSet) Get(fsUUID string) (*Rule, bool) {
	r, ok := s.rules[fsUUID]
	return r, ok
}

// FindByLUKSUUID returns the rule whose container has the given UUID
func (s *RuleSet) FindByLUKSUUID(luksUUID string) (*Rule, bool) {
	if luksUUID == "" {
		return nil, false
	}
	for _, key := range s.order {
		if r := s.rules[key]; r.LUKSUUID == luksUUID {
			return r, true
		}
	}
	return nil, false
}

// All returns the rules in registration order
func (s *RuleSet) All() []*Rule {
	rules := make([]*Rule, 0, len(s.order))
	for _, key := range s.order {
		rules = append(rules, s.rules[key])
	}
	return rules
}

// Len returns the number of registered rules
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// BindCrypto sets LUKSName on every rule whose container appears in emap.
// Rules whose container is absent are left untouched.
func (s *RuleSet) BindCrypto(emap device.EncryptionMap) {
	for _, r := range s.rules {
		if !r.Encrypted() {
			continue
		}
		if name, ok := emap[r.LUKSUUID]; ok {
			r.LUKSName = name
		}
	}
}

// IdentifyCryptoDevices resolves the device aliases under cfg.DevicesRoot,
// parses cfg.Crypttab and binds mapped names to the rules.
func (s *RuleSet) IdentifyCryptoDevices(cfg *Config) error {
	aliases, err := device.ResolveAliases(cfg.DevicesRoot)
	if err != nil {
		return err
	}
	emap, err := device.ReadMappingTable(cfg.Crypttab, aliases)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Crypttab, err)
	}
	s.BindCrypto(emap)
	return nil
}
