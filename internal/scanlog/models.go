// Package scanlog is the append-only audit trail of scan verification
// attempts. Every presented token lands here, valid or not; entries are
// never updated or deleted.
package scanlog

import (
	"time"

	id "gatepass/pkg/domain"
)

// Entry records one scan attempt. RegistrantID is nil when the presented
// token did not resolve to an identity; RawToken keeps the exact presented
// string for forensic replay.
type Entry struct {
	ID           id.EntryID       `json:"id"`
	RegistrantID *id.RegistrantID `json:"registrant_id"`
	OperatorID   id.RegistrantID  `json:"operator_id"`
	RawToken     string           `json:"raw_token"`
	Valid        bool             `json:"is_valid"`
	Detail       string           `json:"detail"`
	Device       string           `json:"device,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}
