// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// MaxTextLength is the upper bound on Item.Text, counted in characters (runes),
// not bytes. Every storage backend declares its text column with this bound.
const MaxTextLength = 255

// Item is a single task on the list.
//
// ID and CreatedAt are owned by the repository: they are assigned once in
// Create and never change afterwards. Text and Completed are the only
// mutable fields, and only the update flow touches them.
//
// The `json` and `yaml` tags are used by GET /api/items and by the export
// command, so the same struct serializes identically everywhere.
type Item struct {
	ID        string    `json:"id"        yaml:"id"`
	Text      string    `json:"text"      yaml:"text"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Completed bool      `json:"completed" yaml:"completed"`
}
