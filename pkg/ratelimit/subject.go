package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// maxIdentityLength caps identities embedded in storage keys.
const maxIdentityLength = 64

// Subject describes who is making a request. WebsiteID scopes user and email
// identities, which are only unique within one website.
type Subject struct {
	WebsiteID string
	UserID    string
	IP        string
	Email     string
}

// Identity resolves the bucket identity for b. Anonymous callers of a by_user
// rule and by_email requests without an email fall back to the IP address,
// which is shared by all websites. Returns an empty string when nothing
// identifies the caller.
func (s Subject) Identity(b Bucket) string {
	var id string
	switch b {
	case ByUser:
		if s.UserID != "" {
			id = s.websitePrefix() + "u:" + s.UserID
		}
	case ByEmail:
		if email := strings.ToLower(strings.TrimSpace(s.Email)); email != "" {
			id = s.websitePrefix() + "e:" + email
		}
	}
	if id == "" && s.IP != "" {
		id = "ip:" + s.IP
	}
	return compactIdentity(id)
}

// websitePrefix is length-prefixed so a website id containing ':' cannot
// borrow another tenant's bucket.
func (s Subject) websitePrefix() string {
	if s.WebsiteID == "" {
		return ""
	}
	return "w" + strconv.Itoa(len(s.WebsiteID)) + ":" + s.WebsiteID + ":"
}

// compactIdentity hashes long identities to keep storage keys bounded.
func compactIdentity(id string) string {
	if len(id) <= maxIdentityLength {
		return id
	}
	hash := sha256.Sum256([]byte(id))
	return "h:" + hex.EncodeToString(hash[:16])
}
