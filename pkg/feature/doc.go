// Package feature provides feature flags with optional per-website targeting.
//
// Flags are loaded from configuration at startup into a MemoryProvider:
//
//	flags := feature.FlagsFromConfig(policy.FeatureFlags, website.IDFromContext)
//	provider, err := feature.NewMemoryProvider(flags...)
//
//	on, err := provider.IsEnabled(ctx, "notifications.channel.webhook")
//	if errors.Is(err, feature.ErrFlagNotFound) {
//	    // caller decides the default
//	}
package feature
