package convert

import (
	"math/rand"
	"time"
)

// MaxRetries is the default number of attempts per file.
const MaxRetries = 3

const (
	backoffBase = time.Second
	backoffCap  = 30 * time.Second
)

// Backoff waits 1s, 2s, 4s... capped at 30s, plus up to half that again as
// jitter, before retry attempt+1.
func Backoff(attempt int) time.Duration {
	d := backoffCap
	if attempt < 5 {
		d = min(backoffBase<<attempt, backoffCap)
	}
	return d + time.Duration(rand.Int63n(int64(d/2)))
}
