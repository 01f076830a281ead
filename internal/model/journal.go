package model

import "time"

// JournalEntry is a free-text note, one per (UserID, Date).
// Date is a calendar date in YYYY-MM-DD form.
type JournalEntry struct {
	ID        string    `json:"id"        db:"id"         bson:"_id"`
	UserID    string    `json:"-"         db:"user_id"    bson:"userId"`
	Date      string    `json:"date"      db:"date"       bson:"date"`
	Content   string    `json:"content"   db:"content"    bson:"content"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}
