/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/url"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 320

// joinLink is the address players scan to join code, or "" without a base.
func joinLink(base, code string) string {
	if base == "" || code == "" {
		return ""
	}

	u, err := url.Parse(base)
	if err != nil {
		return ""
	}

	q := u.Query()
	q.Set("room", code)
	u.RawQuery = q.Encode()

	return u.String()
}

// terminalQR renders link as block characters for the terminal.
func terminalQR(link string) (string, error) {
	code, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return "", err
	}

	return code.ToSmallString(false), nil
}

// serveQR generates a PNG QR code of the join link for the current room.
func serveQR(cfg *Config, views viewer, log *zap.SugaredLogger, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		link := joinLink(cfg.joinURL, views.View().Code)
		if link == "" {
			http.Error(w, "not in a room", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			log.Errorf("SERVE: QR generation failed for %s: %v", link, err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "image/png")
		securityHeaders(w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}
