package ratelimit

import (
	"errors"
	"os"

	"github.com/scribeworks/ordergate/pkg/config"
)

// ruleSet is the YAML document shape:
//
//	rules:
//	  - scope: login
//	    path: /auth/login
//	    window: 60s
//	    max_count: 10
//	    bucket: by_ip
//	    fail_policy: closed
type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses a YAML rule table and builds a registry from it.
func LoadRules(data []byte) (*Registry, error) {
	var set ruleSet
	if err := config.LoadYAML(data, &set); err != nil {
		return nil, errors.Join(ErrInvalidRule, err)
	}
	if len(set.Rules) == 0 {
		return nil, errors.Join(ErrInvalidRule, errors.New("no rules defined"))
	}
	return NewRegistry(set.Rules...)
}

// LoadRulesFile reads a YAML rule table from disk.
func LoadRulesFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidRule, err)
	}
	return LoadRules(data)
}
