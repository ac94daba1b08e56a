package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/chatwire/internal/app"
	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/domain"
	"github.com/matheus3301/chatwire/internal/gateway"
	"github.com/matheus3301/chatwire/internal/push"
	"github.com/matheus3301/chatwire/internal/status"
	intsync "github.com/matheus3301/chatwire/internal/sync"
)

var errUsage = errors.New("usage")

type cli struct {
	app     *app.App
	jsonOut bool
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "backend base url (overrides $CHATWIRE_SERVER and config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verboseFlag := flag.Bool("verbose", false, "also log to stderr")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	params, err := app.Resolve(*profileFlag, *serverFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	params.Quiet = !*verboseFlag

	var a *app.App
	fxApp := fx.New(app.Module(params), fx.NopLogger, fx.Populate(&a))
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = fxApp.Start(startCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := &cli{app: a, jsonOut: *jsonFlag}
	runErr := c.run(ctx, args)
	stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = fxApp.Stop(stopCtx)

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n", runErr)
		} else {
			fmt.Fprintf(os.Stderr, "error: %s\n", gateway.UserMessage(runErr))
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--profile <name>] [--server <url>] [--json] [--verbose] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login <user> <password>                   Sign in and store the session")
	fmt.Fprintln(os.Stderr, "  logout                                    Forget the stored session")
	fmt.Fprintln(os.Stderr, "  whoami                                    Show the signed-in user")
	fmt.Fprintln(os.Stderr, "  chats                                     List chats, most recent first")
	fmt.Fprintln(os.Stderr, "  messages <chatId>                         Show the latest messages of a chat")
	fmt.Fprintln(os.Stderr, "  send <chatId> <text>                      Send a text message")
	fmt.Fprintln(os.Stderr, "  private <userId>                          Start a private chat")
	fmt.Fprintln(os.Stderr, "  group <name> <id,id,...>                  Create a group chat")
	fmt.Fprintln(os.Stderr, "  participants add|remove <chatId> <userId> Change group membership")
	fmt.Fprintln(os.Stderr, "  watch                                     Stream live events until interrupted")
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("%w: chatctl login <user> <password>", errUsage)
		}
		id, err := c.app.Coordinator.Login(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		c.printIdentity(id)
		return nil
	case "logout":
		c.app.Coordinator.Logout()
		if !c.jsonOut {
			fmt.Println("logged out")
		}
		return nil
	case "whoami":
		return c.whoami()
	}

	if !c.app.Coordinator.State().IsAuthenticated {
		return intsync.ErrNotAuthenticated
	}

	switch cmd {
	case "chats":
		c.printChats(c.app.Engine.Snapshot())
		return nil
	case "messages":
		if len(rest) != 1 {
			return fmt.Errorf("%w: chatctl messages <chatId>", errUsage)
		}
		return c.messages(ctx, rest[0])
	case "send":
		if len(rest) < 2 {
			return fmt.Errorf("%w: chatctl send <chatId> <text>", errUsage)
		}
		msg, err := c.app.Engine.Send(ctx, rest[0], strings.Join(rest[1:], " "), domain.MessageText)
		if err != nil {
			return err
		}
		c.printMessages([]domain.Message{msg})
		return nil
	case "private":
		if len(rest) != 1 {
			return fmt.Errorf("%w: chatctl private <userId>", errUsage)
		}
		chat, err := c.app.Engine.CreatePrivateChat(ctx, rest[0])
		if err != nil {
			return err
		}
		c.printChat(chat)
		return nil
	case "group":
		if len(rest) != 2 {
			return fmt.Errorf("%w: chatctl group <name> <id,id,...>", errUsage)
		}
		chat, err := c.app.Engine.CreateGroupChat(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		c.printChat(chat)
		return nil
	case "participants":
		return c.participants(ctx, rest)
	case "watch":
		return c.watch(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (c *cli) whoami() error {
	state := c.app.Coordinator.State()
	if !state.IsAuthenticated {
		return intsync.ErrNotAuthenticated
	}
	c.printIdentity(state.Identity)
	return nil
}

func (c *cli) messages(ctx context.Context, chatID string) error {
	for _, chat := range c.app.Engine.Snapshot().Chats {
		if chat.ID != chatID {
			continue
		}
		if err := c.app.Engine.SelectChat(ctx, chat); err != nil {
			return err
		}
		// Another load may still be running; wait on our own.
		if !c.app.Engine.HasHistory(chatID) {
			if err := c.app.Engine.LoadMessages(ctx, chatID); err != nil {
				return err
			}
		}
		c.printMessages(c.app.Engine.Messages(chatID))
		return nil
	}
	return fmt.Errorf("chat %s not found", chatID)
}

func (c *cli) participants(ctx context.Context, rest []string) error {
	if len(rest) != 3 || (rest[0] != "add" && rest[0] != "remove") {
		return fmt.Errorf("%w: chatctl participants add|remove <chatId> <userId>", errUsage)
	}
	var (
		chat domain.Chat
		err  error
	)
	if rest[0] == "add" {
		chat, err = c.app.Engine.AddParticipant(ctx, rest[1], rest[2])
	} else {
		chat, err = c.app.Engine.RemoveParticipant(ctx, rest[1], rest[2])
	}
	if err != nil {
		return err
	}
	c.printChat(chat)
	return nil
}

// watch prints pushed messages and channel state changes until ctx ends.
func (c *cli) watch(ctx context.Context) error {
	sub := c.app.Bus.Subscribe(bus.Prefix("push."), 256)
	defer sub.Close()

	if !c.jsonOut {
		fmt.Fprintf(os.Stderr, "watching %s (channel %s), Ctrl-C to stop\n", c.app.Profile, c.app.Push.State())
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-sub.C:
			if !ok {
				return nil
			}
			c.printEvent(evt)
			if evt.Kind == bus.KindPushGaveUp {
				return errors.New("push channel gave up reconnecting")
			}
		}
	}
}

func (c *cli) printEvent(evt bus.Event) {
	if c.jsonOut {
		outputJSON(map[string]any{"kind": evt.Kind, "timestamp": evt.Timestamp, "payload": evt.Payload})
		return
	}
	ts := evt.Timestamp.Format("15:04:05")
	switch p := evt.Payload.(type) {
	case domain.Message:
		fmt.Printf("%s [%s] %s: %s\n", ts, p.ChatID, p.SenderID, p.Content)
	case push.MessageStatusUpdate:
		fmt.Printf("%s message %s is %s\n", ts, p.MessageID, p.Status)
	case push.TypingUpdate:
		if p.IsTyping {
			fmt.Printf("%s [%s] %s is typing\n", ts, p.ChatID, p.UserID)
		}
	case status.StatusChange:
		fmt.Printf("%s channel %s -> %s\n", ts, p.From, p.To)
	case *push.ChannelError:
		fmt.Printf("%s error %s: %s\n", ts, p.Code, p.Message)
	default:
		fmt.Printf("%s %s\n", ts, evt.Kind)
	}
}

func (c *cli) printIdentity(id domain.Identity) {
	if c.jsonOut {
		outputJSON(id)
		return
	}
	fmt.Printf("Profile:  %s\n", c.app.Profile)
	fmt.Printf("User:     %s\n", id.Username)
	fmt.Printf("ID:       %s\n", id.ID)
	if id.Email != "" {
		fmt.Printf("Email:    %s\n", id.Email)
	}
}

func (c *cli) printChats(s intsync.Snapshot) {
	if c.jsonOut {
		outputJSON(s.Chats)
		return
	}
	if len(s.Chats) == 0 {
		fmt.Println("no chats")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tLAST MESSAGE\tAT")
	for _, chat := range s.Chats {
		preview, at := "", ""
		if lm := chat.LastMessage; lm != nil {
			preview = truncate(lm.Content, 40)
			at = lm.Timestamp.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", chat.ID, chat.Type, chat.Title(s.Self.ID), preview, at)
	}
	_ = w.Flush()
}

func (c *cli) printChat(chat domain.Chat) {
	if c.jsonOut {
		outputJSON(chat)
		return
	}
	fmt.Printf("%s %s %s [%s]\n", chat.ID, chat.Type, chat.Name, strings.Join(chat.Participants, ", "))
}

func (c *cli) printMessages(msgs []domain.Message) {
	if c.jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		fmt.Printf("%s  %-12s %s  (%s)\n", m.Timestamp.Local().Format(time.DateTime), m.SenderID, m.Content, m.Status)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
