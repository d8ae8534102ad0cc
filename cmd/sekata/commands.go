package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sekata-go/internal/api"
	"sekata-go/internal/game"
	"sekata-go/internal/session"
	"sekata-go/pkg/websocket"
)

var (
	errUsage   = errors.New("usage")
	errUnknown = errors.New("unknown command")
	errQuit    = errors.New("quit")
)

const helpText = `commands:
  create              host a new game
  join <game id>      join a game
  start               start the game (host only)
  hand <n>            pick card n from your hand
  helper <n>          pick helper card n
  before | after      place the picked card
  deselect            drop the picked card
  reset               undo every placement this turn
  submit              play the placed cards
  check               pass the turn
  leave               leave the game
  quit                exit`

type command struct {
	name string
	arg  string
	n    int
}

func parse(line string) (command, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return command{}, nil
	}
	cmd := command{name: strings.ToLower(fields[0])}
	args := fields[1:]

	switch cmd.name {
	case "create", "start", "before", "after", "deselect", "reset", "submit", "check", "leave", "quit", "exit", "help":
		if len(args) != 0 {
			return command{}, fmt.Errorf("%s takes no arguments: %w", cmd.name, errUsage)
		}
		if cmd.name == "exit" {
			cmd.name = "quit"
		}
	case "join":
		if len(args) != 1 {
			return command{}, fmt.Errorf("join <game id>: %w", errUsage)
		}
		cmd.arg = strings.ToUpper(args[0])
	case "hand", "helper":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%s <n>: %w", cmd.name, errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("%s <n> needs a card number from 1: %w", cmd.name, errUsage)
		}
		cmd.n = n
	default:
		return command{}, fmt.Errorf("%q: %w", cmd.name, errUnknown)
	}
	return cmd, nil
}

// shell executes parsed commands against one session.
type shell struct {
	sess     *session.Session
	playerID string
	out      io.Writer
	log      *zap.Logger

	serverURL   string
	watch       bool
	stopWatcher context.CancelFunc
}

func (sh *shell) exec(ctx context.Context, line string) error {
	cmd, err := parse(line)
	if err != nil {
		return err
	}
	switch cmd.name {
	case "":
		return nil
	case "help":
		fmt.Fprintln(sh.out, helpText)
		return nil
	case "quit":
		return errQuit
	case "create":
		id, err := sh.sess.Create(ctx, sh.playerID)
		if err != nil {
			return err
		}
		sh.startWatcher(ctx, id)
		return nil
	case "join":
		if err := sh.sess.Join(ctx, cmd.arg, sh.playerID); err != nil {
			return err
		}
		sh.startWatcher(ctx, cmd.arg)
		return nil
	case "start":
		_, err := sh.sess.Start(ctx)
		return err
	case "leave":
		sh.stopWatching()
		return sh.sess.Leave(ctx)
	case "hand", "helper":
		card, kind, err := sh.pick(cmd)
		if err != nil {
			return err
		}
		_, err = sh.sess.Select(ctx, card, kind)
		return err
	case "before", "after":
		changed, err := sh.sess.Place(ctx, game.Position(cmd.name))
		if err == nil && !changed {
			fmt.Fprintln(sh.out, "nothing to place")
		}
		return err
	case "deselect":
		_, err := sh.sess.Deselect(ctx)
		return err
	case "reset":
		return sh.sess.ResetTurn(ctx)
	case "submit":
		_, err := sh.sess.Submit(ctx)
		return err
	case "check":
		_, err := sh.sess.Check(ctx)
		return err
	}
	return fmt.Errorf("%q: %w", cmd.name, errUnknown)
}

func (sh *shell) pick(cmd command) (game.Card, game.Kind, error) {
	snap := sh.sess.Store().Snapshot.Get()
	var list []game.Card
	kind := game.KindHand
	if cmd.name == "helper" {
		kind = game.KindHelper
		if snap != nil {
			list = snap.HelperCards
		}
	} else {
		list = snap.HandOf(sh.playerID)
	}
	if cmd.n > len(list) {
		return "", "", fmt.Errorf("no %s card %d", kind, cmd.n)
	}
	return list[cmd.n-1], kind, nil
}

func (sh *shell) startWatcher(ctx context.Context, gameID string) {
	sh.stopWatching()
	if !sh.watch {
		return
	}
	u, err := websocket.WatchURL(sh.serverURL, gameID, sh.playerID)
	if err != nil {
		sh.log.Warn("watch disabled", zap.Error(err))
		return
	}
	wctx, cancel := context.WithCancel(ctx)
	sh.stopWatcher = cancel
	w := &websocket.Watcher{URL: u, OnUpdate: sh.sess.Poke, Log: sh.log}
	go func() {
		if err := w.Run(wctx); err != nil && !errors.Is(err, context.Canceled) {
			sh.log.Warn("watcher stopped", zap.Error(err))
		}
	}()
}

func (sh *shell) stopWatching() {
	if sh.stopWatcher != nil {
		sh.stopWatcher()
		sh.stopWatcher = nil
	}
}

// describe turns a command error into the line shown to the player.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage), errors.Is(err, errUnknown):
		return err.Error() + " (type help)"
	case errors.Is(err, game.ErrNotInGame):
		return "create or join a game first"
	default:
		return api.Message(err)
	}
}
