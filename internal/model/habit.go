// Package model defines the data structures used throughout the application.
//
// Each struct carries three sets of tags:
//   - json: the HTTP wire format (camelCase, matches what the web client sends)
//   - db:   the SQLite column name
//   - bson: the MongoDB document field
//
// The same struct travels from the repository through the service to the
// handler, so there is no per-layer DTO copying for the simple records.
package model

import "time"

// Habit is the global identity of a trackable behaviour. Its ID is the
// stable key every DayStatusRecord and MonthSnapshot entry points at.
type Habit struct {
	ID        string    `json:"id"        db:"id"         bson:"_id"`
	UserID    string    `json:"-"         db:"user_id"    bson:"userId"`
	Name      string    `json:"name"      db:"name"       bson:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// MonthHabit is one row of a month snapshot. Name is copied at snapshot
// time, so renaming or deleting the global Habit leaves history alone.
type MonthHabit struct {
	ID   string `json:"id"   bson:"habitId"`
	Name string `json:"name" bson:"name"`
}

// MonthSnapshot is the ordered set of habits visible in one calendar month.
// At most one exists per (UserID, MonthKey).
type MonthSnapshot struct {
	UserID    string       `json:"-"         bson:"userId"`
	MonthKey  string       `json:"monthKey"  bson:"monthKey"`
	Habits    []MonthHabit `json:"habits"    bson:"habits"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}
