// Package model contains core data types for the project.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Collection names used by the record store.
const (
	CollectionStatusChecks = "status_checks" // One document per status check.
	CollectionTrustMetrics = "trust_metrics" // The trust metrics document.
)

// StatusCheck is a single client status report.
type StatusCheck struct {
	ID         string    `json:"id" bson:"id"`                   // Generated UUID.
	ClientName string    `json:"client_name" bson:"client_name"` // Reporting client.
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`     // Creation time, UTC.
}

// StatusCheckCreate is the request body for creating a status check.
// ClientName is a pointer so a missing field can be told apart from "".
type StatusCheckCreate struct {
	ClientName *string `json:"client_name"`
}

// NewStatusCheck returns a status check with a fresh id and the current UTC time.
func NewStatusCheck(clientName string) StatusCheck {
	return StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
}

// MetricItem is one entry of the trust metrics document.
type MetricItem struct {
	Key   string  `json:"key" bson:"key"`                       // Stable identifier.
	Label string  `json:"label" bson:"label"`                   // Human-readable label.
	Value string  `json:"value" bson:"value"`                   // Display value.
	Icon  *string `json:"icon,omitempty" bson:"icon,omitempty"` // Icon hint for the frontend.
}

// TrustMetrics is the trust metrics document shown to clients.
type TrustMetrics struct {
	ID        string       `json:"id" bson:"id"`
	Items     []MetricItem `json:"items" bson:"items"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}
