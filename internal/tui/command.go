package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/chatwire/internal/domain"
)

// Command names accepted by the ':' prompt.
const (
	CmdPrivate = "private"
	CmdGroup   = "group"
	CmdAdd     = "add"
	CmdRemove  = "remove"
	CmdRefresh = "refresh"
	CmdLogout  = "logout"
	CmdQuit    = "quit"
)

var (
	errNoChat    = errors.New("open a chat first")
	errUsage     = errors.New("usage")
	errUnknownOp = errors.New("unknown command")
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// chatOps is the part of the sync engine the prompt drives.
type chatOps interface {
	CreatePrivateChat(ctx context.Context, peerID string) (domain.Chat, error)
	CreateGroupChat(ctx context.Context, name, rawParticipants string) (domain.Chat, error)
	AddParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error)
	RemoveParticipant(ctx context.Context, chatID, participantID string) (domain.Chat, error)
	RefreshChats(ctx context.Context) error
}

// runChatCommand executes a chat command against ops. currentID is the open
// chat, used by the participant commands. It returns the confirmation line.
//
//	private <userId>
//	group <name> | <id, id, ...>
//	add <userId>
//	remove <userId>
//	refresh
func runChatCommand(ctx context.Context, ops chatOps, cmd Command, currentID string) (string, error) {
	switch cmd.Name {
	case CmdPrivate:
		if cmd.Args == "" || strings.ContainsAny(cmd.Args, " \t") {
			return "", fmt.Errorf("%w: private <userId>", errUsage)
		}
		chat, err := ops.CreatePrivateChat(ctx, cmd.Args)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Started private chat %s", chat.ID), nil

	case CmdGroup:
		name, raw, ok := strings.Cut(cmd.Args, "|")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return "", fmt.Errorf("%w: group <name> | <id, id, ...>", errUsage)
		}
		chat, err := ops.CreateGroupChat(ctx, name, raw)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created group %q", chat.Name), nil

	case CmdAdd, CmdRemove:
		if currentID == "" {
			return "", errNoChat
		}
		if cmd.Args == "" {
			return "", fmt.Errorf("%w: %s <userId>", errUsage, cmd.Name)
		}
		if cmd.Name == CmdAdd {
			if _, err := ops.AddParticipant(ctx, currentID, cmd.Args); err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %s", cmd.Args), nil
		}
		if _, err := ops.RemoveParticipant(ctx, currentID, cmd.Args); err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed %s", cmd.Args), nil

	case CmdRefresh:
		if err := ops.RefreshChats(ctx); err != nil {
			return "", err
		}
		return "Chats refreshed", nil
	}
	return "", fmt.Errorf("%w: %s", errUnknownOp, cmd.Name)
}
