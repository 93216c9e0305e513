/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package view

import (
	"fmt"
	"strings"

	"github.com/Seednode/partybox-client/notify"
)

// Text formats v for a plain terminal.
func Text(v View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "partybox [%s]\n", v.Connection)

	if v.Banner.Visible {
		fmt.Fprintf(&b, "%s %s\n", bannerPrefix(v.Banner.Severity), v.Banner.Text)
	}

	if v.Screen == ScreenLobby {
		b.WriteString("Commands: create <name> | join <code> <name> | help\n")

		return b.String()
	}

	fmt.Fprintf(&b, "%s\n", v.RoomCode)

	fmt.Fprintf(&b, "Players (%d):\n", len(v.Players))
	for _, name := range v.Players {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	if v.PhaseLabel != "" {
		fmt.Fprintf(&b, "%s\n", v.PhaseLabel)
	}

	if v.Song != "" {
		fmt.Fprintf(&b, "Now playing: %s\n", v.Song)
	}

	if v.Countdown != "" {
		fmt.Fprintf(&b, "%s\n", v.Countdown)
	}

	switch {
	case v.Leaving:
		b.WriteString("Leaving room...\n")
	case v.ShowStart:
		b.WriteString("Commands: start | leave\n")
	default:
		b.WriteString("Commands: leave\n")
	}

	return b.String()
}

func bannerPrefix(s notify.Severity) string {
	switch s {
	case notify.Error:
		return "[error]"
	case notify.Warning:
		return "[warning]"
	default:
		return "[info]"
	}
}
