package notifications

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
)

// Payload is the stable subset of a notification used for de-duplication.
// Timestamps, ids and free-form data are not part of it.
type Payload struct {
	Title   string
	Message string
	Link    string
}

// Signature returns a hex sha256 over title, message and link. Fields are
// length-prefixed so that shifting text between them changes the result.
func Signature(p Payload) string {
	h := sha256.New()
	for _, field := range []string{p.Title, p.Message, p.Link} {
		field = strings.TrimSpace(field)
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DedupeKey builds the claim key for one (website, user, event, signature).
// Each free-form component is prefixed with its length, so ids containing ':'
// cannot make two distinct tuples share a key.
func DedupeKey(websiteID, userID, eventKey, signature string) string {
	var b strings.Builder
	b.WriteString("dedupe")
	for _, part := range []string{websiteID, userID, eventKey} {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	b.WriteByte(':')
	b.WriteString(signature)
	return b.String()
}
