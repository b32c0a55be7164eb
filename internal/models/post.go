package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the board column a post belongs to. The zero value is
// StatusToDo, which is also the status every new post starts in.
type Status int

const (
	StatusToDo Status = iota
	StatusDoing
	StatusDone
)

// Valid reports whether s is one of the three board statuses.
func (s Status) Valid() bool {
	return s >= StatusToDo && s <= StatusDone
}

func (s Status) String() string {
	switch s {
	case StatusToDo:
		return "todo"
	case StatusDoing:
		return "doing"
	case StatusDone:
		return "done"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalJSON renders the status by name rather than its column value.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the status names produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "todo":
		*s = StatusToDo
	case "doing":
		*s = StatusDoing
	case "done":
		*s = StatusDone
	default:
		return fmt.Errorf("unknown status %q", name)
	}
	return nil
}

// Post is a task item on the board, owned by exactly one user. Created and
// AuthorID are set once at creation and never change afterwards.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Title    string    `json:"title" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Body     string    `json:"body" gorm:"type:text"`
	Status   Status    `json:"status" gorm:"not null;default:0"`
	Created  time.Time `json:"created" gorm:"not null"`
	AuthorID uint      `json:"author_id" gorm:"not null;index"`
}
