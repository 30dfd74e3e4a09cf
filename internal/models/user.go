package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultProfilePicture = "/uploads/defaultpropic.avif"
)

// PersonalRecord is a label/time pair such as {"5K", "21:30"}.
type PersonalRecord struct {
	Label string `json:"label"`
	Time  string `json:"time"`
}

// DefaultPersonalRecords returns the fixed-shape record list every identity starts with.
func DefaultPersonalRecords() []PersonalRecord {
	return []PersonalRecord{
		{Label: "5K"},
		{Label: "10K"},
		{Label: "Half"},
		{Label: "Marathon"},
	}
}

// Identity is a registered account together with its derived relationship sets.
type Identity struct {
	ID               uuid.UUID        `json:"id"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	FullName         string           `json:"fullName"`
	ProfilePicture   string           `json:"profilePicture"`
	PersonalRecords  []PersonalRecord `json:"prs"`
	Friends          []uuid.UUID      `json:"friends"`
	RequestsSent     []uuid.UUID      `json:"friendRequestsSent"`
	RequestsReceived []uuid.UUID      `json:"friendRequestsReceived"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// UserSummary holds the public display fields of an identity.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName,omitempty"`
	Email          string    `json:"email,omitempty"`
	ProfilePicture string    `json:"profilePicture"`
}

// PublicUserFields lists the summary fields a caller may select.
var PublicUserFields = []string{"username", "fullName", "email", "profilePicture"}

// Project returns the summary restricted to the named fields. The id is always included.
// Unknown names are ignored; an empty list selects every public field.
func (u UserSummary) Project(fields []string) map[string]any {
	if len(fields) == 0 {
		fields = PublicUserFields
	}
	out := map[string]any{"id": u.ID}
	for _, f := range fields {
		switch f {
		case "username":
			out["username"] = u.Username
		case "fullName":
			out["fullName"] = u.FullName
		case "email":
			out["email"] = u.Email
		case "profilePicture":
			out["profilePicture"] = u.ProfilePicture
		}
	}
	return out
}
