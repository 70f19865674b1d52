package models

import "time"

// InputCount is one persisted counter row.
type InputCount struct {
	InputName   InputID   `json:"input_name"`
	PressCount  int64     `json:"press_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Summary is the human-facing session digest.
type Summary struct {
	LeftClicks      int64
	RightClicks     int64
	MiddleClicks    int64
	TotalKeyPresses int64
	LastUpdated     time.Time
}
