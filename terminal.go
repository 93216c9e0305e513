/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
	"strings"

	"github.com/Seednode/partybox-client/view"
	"go.uber.org/zap"
)

// terminal repaints the screen on every published view.
type terminal struct {
	out     io.Writer
	qr      bool
	joinURL string
	log     *zap.SugaredLogger
}

func (t *terminal) Publish(v view.View) {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(view.Text(v))

	if link := joinLink(t.joinURL, v.Code); link != "" && v.ShowStart {
		b.WriteString("Join at " + link + "\n")

		if t.qr {
			code, err := terminalQR(link)
			if err != nil {
				t.log.Warnf("QR: Failed to render %s: %v", link, err)
			} else {
				b.WriteString(code)
			}
		}
	}

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		t.log.Warnf("TERM: Failed to draw screen: %v", err)
	}
}
