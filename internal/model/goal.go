package model

import "time"

// Goal is the monthly goal card: the goal itself, a free-text target date
// and the list of things the user gives up to get there.
// One per (UserID, Month, Year).
type Goal struct {
	UserID     string    `json:"-"          db:"user_id"     bson:"userId"`
	Month      int       `json:"month"      db:"month"       bson:"month"`
	Year       int       `json:"year"       db:"year"        bson:"year"`
	Goal       string    `json:"goal"       db:"goal"        bson:"goal"`
	TargetDate string    `json:"targetDate" db:"target_date" bson:"targetDate"`
	Sacrifices []string  `json:"sacrifices" db:"sacrifices"  bson:"sacrifices"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"  bson:"updatedAt"`
}

// EmptyGoal is what a month with no saved goal looks like: blank text and
// a single empty sacrifice row for the form to fill in.
func EmptyGoal(month, year int) *Goal {
	return &Goal{
		Month:      month,
		Year:       year,
		Sacrifices: []string{""},
	}
}
