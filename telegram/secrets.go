// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"fmt"
	"slices"
)

// Secrets holds the bot token and the telegram user names that are allowed to
// talk to the bot. Owner and other users receive the notifications.
type Secrets struct {
	BotToken string `json:"token"`

	OwnerID string `json:"owner"`

	AdminID string `json:"admin"`

	OtherIDs []string `json:"others"`
}

func (v *Secrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if len(v.OwnerID) == 0 {
		return fmt.Errorf("owner id cannot be empty")
	}
	if slices.Contains(v.OtherIDs, "") {
		return fmt.Errorf("empty string in other ids is not a valid id")
	}
	if len(v.AdminID) != 0 && slices.Contains(v.OtherIDs, v.AdminID) {
		return fmt.Errorf("admin id should not be repeated in other ids")
	}
	if slices.Contains(v.OtherIDs, v.OwnerID) {
		return fmt.Errorf("owner id should not be repeated in other ids")
	}
	return nil
}

// receivers returns the users that receive notifications.
func (v *Secrets) receivers() []string {
	return append([]string{v.OwnerID}, v.OtherIDs...)
}

// isAllowed returns true if user can run the bot commands.
func (v *Secrets) isAllowed(user string) bool {
	if len(user) == 0 {
		return false
	}
	return user == v.OwnerID || user == v.AdminID || slices.Contains(v.OtherIDs, user)
}

func (v *Secrets) clone() *Secrets {
	return &Secrets{
		BotToken: v.BotToken,
		OwnerID:  v.OwnerID,
		AdminID:  v.AdminID,
		OtherIDs: slices.Clone(v.OtherIDs),
	}
}
