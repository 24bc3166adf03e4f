package feature

import (
	"context"
	"slices"
)

// TenantStrategy enables a flag per website. The deny list always wins; an
// empty allow list means every website not denied.
type TenantStrategy struct {
	allow     []string
	deny      []string
	extractor TenantExtractor
}

// NewTenantStrategy creates a strategy over website ids read by extractor.
func NewTenantStrategy(allow, deny []string, extractor TenantExtractor) *TenantStrategy {
	return &TenantStrategy{
		allow:     slices.Clone(allow),
		deny:      slices.Clone(deny),
		extractor: extractor,
	}
}

func (s *TenantStrategy) Evaluate(ctx context.Context) (bool, error) {
	var website string
	if s.extractor != nil {
		website = s.extractor(ctx)
	}

	if website != "" && slices.Contains(s.deny, website) {
		return false, nil
	}
	if len(s.allow) == 0 {
		return true, nil
	}
	return website != "" && slices.Contains(s.allow, website), nil
}
