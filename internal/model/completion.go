package model

import "time"

// Completion is the DayStatusRecord for one (UserID, HabitID, MonthKey).
// Days holds completed day numbers and CrossedDays the explicitly missed
// ones; the two never share a value once written through the tracker.
type Completion struct {
	UserID      string    `json:"-"           bson:"userId"`
	HabitID     string    `json:"-"           bson:"habitId"`
	MonthKey    string    `json:"-"           bson:"monthKey"`
	Days        []int     `json:"days"        bson:"days"`
	CrossedDays []int     `json:"crossedDays" bson:"crossedDays"`
	UpdatedAt   time.Time `json:"-"           bson:"updatedAt"`
}
