package feature

import "sort"

// FlagConfig is the YAML shape of a single flag:
//
//	feature_flags:
//	  notifications.channel.webhook:
//	    enabled: true
//	    disabled_websites: [w-legacy]
type FlagConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Description      string   `yaml:"description"`
	EnabledWebsites  []string `yaml:"enabled_websites"`
	DisabledWebsites []string `yaml:"disabled_websites"`
}

// FlagsFromConfig converts a name-keyed flag table into flags. Website lists
// become a TenantStrategy reading the website id with extractor.
func FlagsFromConfig(cfg map[string]FlagConfig, extractor TenantExtractor) []*Flag {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	flags := make([]*Flag, 0, len(cfg))
	for _, name := range names {
		c := cfg[name]
		flag := &Flag{
			Name:        name,
			Description: c.Description,
			Enabled:     c.Enabled,
		}
		if len(c.EnabledWebsites) > 0 || len(c.DisabledWebsites) > 0 {
			flag.Strategy = NewTenantStrategy(c.EnabledWebsites, c.DisabledWebsites, extractor)
		}
		flags = append(flags, flag)
	}
	return flags
}
