// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"path"
)

// State is the persistent state of a bot.
type State struct {
	// UserChatIDMap maps authorized user names to their private chat ids, which
	// are learned when users message the bot.
	UserChatIDMap map[string]int64
}

func stateKey(botName string) string {
	return path.Join("/telegram", botName, "state")
}
