/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

var (
	errQuit           = errors.New("quit requested")
	errUnknownCommand = errors.New("unknown command")
)

const helpText = `Commands:
  create <name>         create a room as <name>
  join <code> <name>    join room <code> as <name>
  start                 start the game (room owner only)
  leave                 leave the current room
  dismiss               hide the current message
  help                  show this help
  quit                  leave and exit`

// intents is what the player can ask of the client.
type intents interface {
	CreateRoom(displayName string) bool
	JoinRoom(displayName, roomCode string) bool
	StartGame() bool
	LeaveRoom() bool
	Dismiss() bool
}

type command struct {
	name string
	args []string
}

func parseCommand(line string) (command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, false
	}

	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// execute runs one command. Missing names and codes are passed through as
// empty so the client reports them the same way the UI would.
func execute(cmd command, c intents, out io.Writer) error {
	switch cmd.name {
	case "create":
		c.CreateRoom(strings.Join(cmd.args, " "))

	case "join":
		var code, name string
		if len(cmd.args) > 0 {
			code = cmd.args[0]
			name = strings.Join(cmd.args[1:], " ")
		}
		c.JoinRoom(name, code)

	case "start":
		c.StartGame()

	case "leave":
		c.LeaveRoom()

	case "dismiss":
		c.Dismiss()

	case "help", "?":
		fmt.Fprintln(out, helpText)

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd.name)
	}

	return nil
}

// readCommands feeds lines from in to c until quit, end of input or ctx is
// done. End of input is not an error; the client keeps running.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, c intents, log *zap.SugaredLogger) error {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			log.Warnf("INPUT: Failed to read commands: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				log.Debugf("INPUT: End of input")
				return nil
			}

			cmd, ok := parseCommand(line)
			if !ok {
				continue
			}

			err := execute(cmd, c, out)
			switch {
			case errors.Is(err, errUnknownCommand):
				fmt.Fprintf(out, "%v (try \"help\")\n", err)
			case err != nil:
				return err
			}
		}
	}
}
