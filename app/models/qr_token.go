package models

import "time"

// QRToken is a short-lived code minted for one punch direction on one
// business day. Clients scan its rendered payload and post it back.
type QRToken struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Type      PunchType `json:"type"`
	Date      string    `json:"date"` // YYYY-MM-DD, local calendar date
	CreatedBy string    `json:"created_by,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QRPayload is the JSON document embedded in the scannable image.
type QRPayload struct {
	Code      string    `json:"code"`
	Type      PunchType `json:"type"`
	Date      string    `json:"date"`
	Timestamp int64     `json:"timestamp"` // issue time, epoch millis
}
