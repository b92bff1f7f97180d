package purchase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyGenerator produces the idempotency key for one purchase attempt.
// The key travels with the submission as request_id so the backend and the
// aggregator can deduplicate a resubmission of the same attempt. A retry is a
// new attempt and must get a fresh key: the previous key may already denote a
// completed transaction upstream.
type KeyGenerator func(category Category, ordinal int) string

// The aggregator requires request ids to start with the current date and time
// in its local zone, minute precision.
var aggregatorZone = func() *time.Location {
	loc, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// DefaultKeyGenerator builds keys from a minute-precision time prefix, a
// random suffix, and the category plus ordinal namespace. Repeated calls with
// identical arguments yield distinct keys; uniqueness rides on the random
// suffix, the time prefix exists for the aggregator's format rule and for
// human traceability.
func DefaultKeyGenerator(category Category, ordinal int) string {
	prefix := time.Now().In(aggregatorZone).Format("200601021504")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%s-%s-%d", prefix, suffix, category, ordinal)
}
