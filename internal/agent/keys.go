package agent

import (
	"fmt"
	"hash/fnv"
)

const anonymousSession = "anonymous-session"

// sessionKeyFor buckets conversation history: explicit session id first,
// then customer id, then a shared anonymous bucket.
func sessionKeyFor(customerID, sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	if customerID != "" {
		return customerID
	}
	return anonymousSession
}

// cacheKeyFor derives the answer-cache key from the raw query text using
// FNV-1a. The text is not canonicalized: collisions can merge unrelated
// queries' answers, and reworded duplicates never share an entry. Both are
// accepted trade-offs of keeping keys short and derivation cheap.
func cacheKeyFor(customerID, query string) string {
	h := fnv.New64a()
	h.Write([]byte(query))
	if customerID != "" {
		return fmt.Sprintf("support:%s:%d", customerID, h.Sum64())
	}
	return fmt.Sprintf("support:%d", h.Sum64())
}
