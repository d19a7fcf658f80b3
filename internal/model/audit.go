package model

import "time"

// AuditEvent is an observational log entry. The log is prepended (newest
// first) and never mutated.
type AuditEvent struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Action   string    `json:"action"` // create | update | delete | import | reorder | sync | export
	Entity   string    `json:"entity"` // material | product | collection | product_type | finish_type | currency | sync
	EntityID *string   `json:"entityId,omitempty"`
	Details  *string   `json:"details,omitempty"`
}
