// Package webhook posts signed JSON events to website endpoints.
//
// Each Send is a single attempt bounded by a timeout. Payloads are signed with
// HMAC-SHA256 over "<unix timestamp>.<body>" and the result is sent in the
// X-Webhook-Signature, X-Webhook-Timestamp and X-Webhook-ID headers. Receivers
// check them with SignatureFromHeader and Verify.
//
// Failures are classified as ErrPermanentFailure (most 4xx), ErrTemporaryFailure
// (network, 5xx, 408/425/429) or ErrTimeout. An optional per-host circuit
// breaker short-circuits endpoints that keep failing with ErrCircuitOpen.
//
//	sender := webhook.NewSender(webhook.WithCircuitBreaker(5, time.Minute))
//	_, err := sender.Send(ctx, webhook.Endpoint{URL: url, Secret: secret}, webhook.Event{
//	    Type:      "order.status_changed",
//	    WebsiteID: websiteID,
//	    Data:      payload,
//	})
package webhook
