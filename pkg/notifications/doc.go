// Package notifications decides where a notification goes and makes sure the
// same logical event is sent once.
//
// A Gate combines three inputs:
//   - ForcedChannels: channels an event always uses, whatever the user chose.
//   - Preferences: the user's opt-ins per channel.
//   - Feature flags named "notifications.channel.<name>" that switch a channel
//     off system-wide. A missing flag means the channel is on.
//
// Gate.AllowOnce claims a dedupe slot keyed by website, user, event and a
// Signature of the title, message and link. The claim is a single atomic
// ClaimIfAbsent on the shared counter store and is the commit point of the
// send: callers must not decide delivery without it.
//
// A Dispatcher runs the full lifecycle:
//
//	pending -> admitted -> delivered | delivered_partial | failed
//	pending -> suppressed (duplicate within TTL)
//	pending -> skipped    (no channel resolved)
//
// Failed channels are reported in the Report and never retried here.
//
// # Usage
//
//	forced := notifications.MustNewForcedChannels(map[string][]string{
//	    "order.status_changed": {notifications.ChannelInApp},
//	})
//	gate := notifications.MustNewGate(store, forced, notifications.WithFeatureFlags(flags))
//	dispatcher := notifications.NewDispatcher(gate,
//	    notifications.WithDeliverer(notifications.ChannelInApp, notifications.NewInAppDeliverer(storage)),
//	    notifications.WithDeliverer(notifications.ChannelEmail, notifications.NewEmailDeliverer(sender, recipients)),
//	)
//	report, err := dispatcher.Dispatch(ctx, notif, prefs)
//
// # Channels
//
// InAppDeliverer writes to Storage (MemoryStorage, or MongoStorage in
// production), read back through Inbox. EmailDeliverer
// renders a templ component and sends it through pkg/email. WebhookDeliverer
// posts a signed event through pkg/webhook and is throttled per website by the
// "webhook" rate limit scope. NoOpDeliverer stands in for disabled transports.
package notifications
