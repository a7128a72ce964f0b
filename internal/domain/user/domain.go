package user

import (
	"fmt"
	"strings"
	"time"
)

const DefaultPushGoal = 1

type User struct {
	ID                   int64     `json:"id"`
	ExternalID           string    `json:"external_id"` // GitHub account id
	DisplayName          string    `json:"display_name"`
	PushGoal             int       `json:"push_goal"`
	AnnoyTime            *string   `json:"annoy_time"` // HH:MM, nil until onboarding is done
	NotificationEndpoint *string   `json:"notification_endpoint"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Onboarded reports whether the user can take part in sweeps.
func (u *User) Onboarded() bool {
	return u.AnnoyTime != nil && u.NotificationEndpoint != nil
}

func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "there"
}

// Settings is a partial update. Nil fields are left untouched; an empty string
// clears AnnoyTime or NotificationEndpoint.
type Settings struct {
	PushGoal             *int    `json:"push_goal,omitempty"`
	AnnoyTime            *string `json:"annoy_time,omitempty"`
	NotificationEndpoint *string `json:"notification_endpoint,omitempty"`
}

// ParseAnnoyTime accepts H:MM or HH:MM and returns the zero-padded HH:MM form,
// which keeps lexicographic comparison equal to chronological comparison.
func ParseAnnoyTime(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("annoy_time %q: want HH:MM", s)
	}
	return t.Format("15:04"), nil
}
