package model

import "time"

// DataCollectionToken proves that data collection was permitted when a report was accepted.
// The zero value is invalid.
type DataCollectionToken struct {
	valid    bool
	IssuedAt time.Time
}

// ValidToken returns a token that permits uploading.
func ValidToken() DataCollectionToken {
	return DataCollectionToken{valid: true, IssuedAt: time.Now()}
}

// IsValid reports whether the token permits uploading.
func (t DataCollectionToken) IsValid() bool {
	return t.valid
}
