package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signature header names.
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"
)

// Signature binds a payload to a delivery id and timestamp.
type Signature struct {
	Value     string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on h.
func (s Signature) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Value)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderID, s.ID)
}

// Sign computes hex(HMAC-SHA256(secret, "<unix ts>.<payload>")).
func Sign(secret string, payload []byte, id string, at time.Time) (Signature, error) {
	if secret == "" {
		return Signature{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return Signature{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	ts := at.Unix()
	return Signature{Value: mac(secret, ts, payload), Timestamp: ts, ID: id}, nil
}

// Verify checks sig against payload. A positive maxAge also rejects stale
// signatures and timestamps more than a minute in the future.
func Verify(secret string, payload []byte, sig Signature, maxAge time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if sig.Value == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}
	if maxAge > 0 {
		age := now.Sub(time.Unix(sig.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature is %s old", ErrInvalidSignature, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: signature timestamp is in the future", ErrInvalidSignature)
		}
	}
	if !hmac.Equal([]byte(mac(secret, sig.Timestamp, payload)), []byte(sig.Value)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// SignatureFromHeader reads the signature headers set by Apply.
func SignatureFromHeader(h http.Header) (Signature, error) {
	sig := Signature{Value: h.Get(HeaderSignature), ID: h.Get(HeaderID)}
	ts := h.Get(HeaderTimestamp)
	if sig.Value == "" || ts == "" {
		return Signature{}, fmt.Errorf("%w: missing signature headers", ErrInvalidSignature)
	}
	var err error
	if sig.Timestamp, err = strconv.ParseInt(ts, 10, 64); err != nil {
		return Signature{}, fmt.Errorf("%w: invalid timestamp", ErrInvalidSignature)
	}
	return sig, nil
}

func mac(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte{'.'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
