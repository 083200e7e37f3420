// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
)

func TestParseCommand(t *testing.T) {
	newMessage := func(text string, length int) *models.Message {
		return &models.Message{
			Text: text,
			Entities: []models.MessageEntity{
				{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: length},
			},
		}
	}

	name, args, err := parseCommand(newMessage("/strategy_start pmm 1 alpha", 15))
	if err != nil {
		t.Fatal(err)
	}
	if name != "strategy_start" || !slices.Equal(args, []string{"pmm", "1", "alpha"}) {
		t.Fatalf("got %q %q", name, args)
	}

	name, args, err = parseCommand(newMessage("/health@funbot", 14))
	if err != nil {
		t.Fatal(err)
	}
	if name != "health" || len(args) != 0 {
		t.Fatalf("got %q %q", name, args)
	}

	if _, _, err := parseCommand(&models.Message{Text: "hello"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want ErrInvalid for plain text, got %v", err)
	}
}

func TestFormatUptime(t *testing.T) {
	if v := FormatUptime(90 * time.Second); v != "1m30s" {
		t.Fatalf("got %q", v)
	}
	if v := FormatUptime(49 * time.Hour); v != "2d1h0m0s" {
		t.Fatalf("got %q", v)
	}
}
