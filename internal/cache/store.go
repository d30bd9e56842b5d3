// Package cache stores generated narratives keyed by an exact digest of the
// model name and prompt text, so identical requests are answered without a
// second model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Store is implemented by every cache backend. A miss is reported as
// ok=false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
}

// KeyFrom builds a cache key from model and prompt digest.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}
