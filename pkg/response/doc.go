// Package response writes JSON bodies in the shape shared by every endpoint:
//
//	{"data": ...}
//	{"error": {"kind": "rate_limited", "message": "...", "wait_seconds": 42}}
package response
