package models

import "time"

// Status values
const (
	StatusOK        = "ok"
	StatusEmergency = "emergency"
)

// Check-in moods
const (
	MoodGood     = "good"
	MoodOkay     = "okay"
	MoodNotGreat = "not_great"
)

// Location is a reported position. Coordinates are kept as the decimal
// strings the client sent.
type Location struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Latitude  string    `json:"latitude"`
	Longitude string    `json:"longitude"`
	Address   *string   `json:"address"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLocation is the insert shape for Location
type NewLocation struct {
	UserID    int64
	Latitude  string
	Longitude string
	Address   *string
}

// StatusUpdate is a coarse well-being flag with an optional battery reading
type StatusUpdate struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Status       string    `json:"status"`
	BatteryLevel *int      `json:"batteryLevel"`
	Timestamp    time.Time `json:"timestamp"`
}

// IsEmergency reports whether the update raises an alert
func (s *StatusUpdate) IsEmergency() bool {
	return s.Status == StatusEmergency
}

// NewStatusUpdate is the insert shape for StatusUpdate
type NewStatusUpdate struct {
	UserID       int64
	Status       string
	BatteryLevel *int
}

// CheckIn is a user-authored "I'm okay" message
type CheckIn struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Message   *string   `json:"message"`
	Mood      string    `json:"mood"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCheckIn is the insert shape for CheckIn
type NewCheckIn struct {
	UserID  int64
	Message *string
	Mood    string
}
