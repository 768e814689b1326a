package issuance

import (
	"fmt"
	"math/rand"
	"time"

	id "gatepass/pkg/domain"
)

// NewRegistrationNumber builds a collision-resistant registration number from
// the issuance time (milliseconds) and a random 10-digit integer. No sequence
// counter: concurrent issuance needs no coordination, and the number is an
// opaque identifier, not a queue position.
func NewRegistrationNumber(now time.Time) id.RegistrationNumber {
	random := 1_000_000_000 + rand.Int63n(9_000_000_000)
	return id.RegistrationNumber(fmt.Sprintf("reg%d%d", now.UnixMilli(), random))
}
