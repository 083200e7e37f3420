// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/ctxutil"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/visvasity/cli"
)

// CmdFunc handles a bot command. Output written to cli.Stdout(ctx) is sent
// back to the user as the reply.
type CmdFunc = cli.CmdFunc

type command struct {
	purpose string
	handler CmdFunc
}

type Client struct {
	cg ctxutil.CloseGroup

	db kv.Database

	bot *bot.Bot

	self *models.User

	secrets *Secrets

	mu sync.Mutex

	state *State

	commandMap map[string]*command
}

var start = time.Now()

func New(ctx context.Context, db kv.Database, secrets *Secrets) (_ *Client, status error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	c := &Client{
		db:         db,
		secrets:    secrets.clone(),
		commandMap: make(map[string]*command),
	}

	b, err := bot.New(secrets.BotToken, bot.WithDefaultHandler(c.handler))
	if err != nil {
		return nil, err
	}
	c.bot = b

	self, err := b.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	c.self = self

	state, err := kvutil.GetDB[State](ctx, db, stateKey(self.Username))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		state = &State{UserChatIDMap: make(map[string]int64)}
	}
	if state.UserChatIDMap == nil {
		state.UserChatIDMap = make(map[string]int64)
	}
	c.state = state

	c.commandMap["uptime"] = &command{purpose: "Prints the server uptime", handler: c.uptime}
	c.commandMap["version"] = &command{purpose: "Prints version information", handler: c.version}
	if err := c.setCommands(ctx); err != nil {
		return nil, err
	}

	c.cg.Go(func(ctx context.Context) {
		c.bot.Start(ctx)
	})
	return c, nil
}

func (c *Client) Close() error {
	c.cg.Close()
	return nil
}

func (c *Client) BotUserName() string {
	return c.self.Username
}

func (c *Client) OwnerUserName() string {
	return c.secrets.OwnerID
}

// AddCommand registers a new bot command. Names must be unique.
func (c *Client) AddCommand(ctx context.Context, name, purpose string, handler CmdFunc) error {
	if len(name) == 0 || len(purpose) == 0 || handler == nil {
		return os.ErrInvalid
	}

	c.mu.Lock()
	if _, ok := c.commandMap[name]; ok {
		c.mu.Unlock()
		return fmt.Errorf("command %q: %w", name, os.ErrExist)
	}
	c.commandMap[name] = &command{purpose: purpose, handler: handler}
	c.mu.Unlock()

	return c.setCommands(ctx)
}

func (c *Client) setCommands(ctx context.Context) error {
	if ok, err := c.bot.SetMyCommands(ctx, c.commands()); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("could not set bot commands")
	}
	return nil
}

func (c *Client) commands() *bot.SetMyCommandsParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cmds []models.BotCommand
	for name, cmd := range c.commandMap {
		cmds = append(cmds, models.BotCommand{
			Command:     name,
			Description: cmd.purpose,
		})
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Command < cmds[j].Command
	})
	return &bot.SetMyCommandsParams{Commands: cmds}
}

// parseCommand splits a bot command message into the command name and its
// arguments.
func parseCommand(msg *models.Message) (string, []string, error) {
	if msg == nil || len(msg.Entities) == 0 {
		return "", nil, os.ErrInvalid
	}
	entity := msg.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand || entity.Offset != 0 {
		return "", nil, os.ErrInvalid
	}
	if len(msg.Text) < entity.Length || msg.Text[0] != '/' {
		return "", nil, os.ErrInvalid
	}
	name := msg.Text[1:entity.Length]
	// Commands in groups carry the bot name suffix.
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	args := strings.Fields(msg.Text[entity.Length:])
	return name, args, nil
}

func (c *Client) getCommand(msg *models.Message) (string, []string, CmdFunc, error) {
	name, args, err := parseCommand(msg)
	if err != nil {
		return "", nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cmd, ok := c.commandMap[name]
	if !ok {
		return name, nil, nil, fmt.Errorf("command %q: %w", name, os.ErrNotExist)
	}
	return name, args, cmd.handler, nil
}

func (c *Client) isValidUser(user string) bool {
	return c.secrets.isAllowed(user)
}

// SendMessage sends the text to the owner and other users with known chat
// ids. Delivery failures to individual users are logged and ignored.
func (c *Client) SendMessage(ctx context.Context, at time.Time, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := at.Format("2006-01-02 15:04:05 MST") + " " + text

	receivers := c.secrets.receivers()
	for _, receiver := range receivers {
		cid, ok := c.state.UserChatIDMap[receiver]
		if !ok {
			slog.Warn("could not notify receiver without chat id", "receiver", receiver)
			continue
		}
		m := &bot.SendMessageParams{
			ChatID: cid,
			Text:   msg,
		}
		if _, err := c.bot.SendMessage(ctx, m); err != nil {
			slog.Error("could not notify receiver (ignored)", "receiver", receiver, "err", err)
			continue
		}
	}
	return nil
}

func (c *Client) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if b != c.bot {
		slog.Error("handler invoked with invalid bot value", "want", c.bot, "got", b)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	sender := update.Message.From.Username
	if !c.isValidUser(sender) {
		slog.Warn("received message from unauthorized user (ignored)", "sender", sender, "message", update.Message.Text)
		return
	}

	if err := c.updateChatID(ctx, sender, update.Message.Chat.ID); err != nil {
		slog.Warn("could not update chat id (ignored)", "err", err)
	}

	if err := c.respond(ctx, update.Message); err != nil {
		slog.Error("could not respond to user command (ignored)", "user", sender, "err", err)
	}
}

func (c *Client) respond(ctx context.Context, msg *models.Message) (status error) {
	disabled := true

	var reply string
	defer func() {
		if len(reply) == 0 {
			return
		}
		p := &bot.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   reply,
			ReplyParameters: &models.ReplyParameters{
				MessageID: msg.ID,
			},
			LinkPreviewOptions: &models.LinkPreviewOptions{
				IsDisabled: &disabled,
			},
		}
		if _, err := c.bot.SendMessage(ctx, p); err != nil {
			status = err
		}
	}()

	name, args, handler, err := c.getCommand(msg)
	if err != nil {
		reply = err.Error()
		return nil
	}

	var sb strings.Builder
	if err := handler(cli.WithStdout(ctx, &sb), args); err != nil {
		slog.Error("could not handle user command (ignored)", "cmd", name, "user", msg.From.Username, "err", err)
		reply = err.Error()
		return nil
	}
	reply = sb.String()
	return nil
}

func (c *Client) updateChatID(ctx context.Context, user string, chatID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.state.UserChatIDMap[user]; ok && id == chatID {
		return nil
	}
	c.state.UserChatIDMap[user] = chatID
	slog.Info("updated chat id for authorized user", "user", user, "chat-id", chatID)

	if err := kvutil.SetDB(ctx, c.db, stateKey(c.BotUserName()), c.state); err != nil {
		slog.Error("could not save telegram state to the db", "err", err)
		return err
	}
	return nil
}

// FormatUptime prints durations longer than a day with a day count prefix.
func FormatUptime(d time.Duration) string {
	const day = 24 * time.Hour
	if d < day {
		return d.String()
	}
	return fmt.Sprintf("%dd%v", d/day, d%day)
}

func (c *Client) uptime(ctx context.Context, _ []string) error {
	fmt.Fprint(cli.Stdout(ctx), FormatUptime(time.Since(start).Truncate(time.Second)))
	return nil
}

func (c *Client) version(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("could not read build information")
	}
	// Dependency versions can overflow the message size limits.
	fmt.Fprintln(stdout, "Go:", info.GoVersion)
	fmt.Fprintln(stdout, "Main Module Path:", info.Main.Path)
	fmt.Fprintln(stdout, "Main Module Version:", info.Main.Version)
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintln(stdout, s.Key+":", s.Value)
		}
	}
	return nil
}
