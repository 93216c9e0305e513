/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package notify implements the single-slot advisory banner.
//
// At most one notification is active. A new one replaces the active one only
// if its severity is at least as high; anything lower is dropped, not queued.
// Info notifications clear themselves after a fixed duration.
package notify

import (
	"time"

	"github.com/Seednode/partybox-client/timer"
	"go.uber.org/zap"
)

const DefaultInfoDuration = 3 * time.Second

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Notification struct {
	Message  string
	Severity Severity
}

// Notifier is the part of the Queue that other components report through.
type Notifier interface {
	Show(message string, severity Severity)
}

type Config struct {
	Scheduler    timer.Scheduler
	InfoDuration time.Duration
	Logger       *zap.SugaredLogger
}

// Queue must only be used from the goroutine that owns its Scheduler.
type Queue struct {
	scheduler    timer.Scheduler
	infoDuration time.Duration
	log          *zap.SugaredLogger

	active   Notification
	visible  bool
	severity Severity
	expiry   *timer.Handle
}

func New(cfg Config) *Queue {
	if cfg.InfoDuration <= 0 {
		cfg.InfoDuration = DefaultInfoDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Queue{
		scheduler:    cfg.Scheduler,
		infoDuration: cfg.InfoDuration,
		log:          cfg.Logger,
		severity:     Info,
	}
}

// Show displays message unless a notification of higher severity is active.
func (q *Queue) Show(message string, severity Severity) {
	if q.visible && severity < q.severity {
		q.log.Debugf("NOTIFY: Dropped %s %q, %s is showing", severity, message, q.severity)
		return
	}

	q.expiry.Stop()
	q.expiry = nil

	q.active = Notification{Message: message, Severity: severity}
	q.visible = true
	q.severity = severity

	q.log.Debugf("NOTIFY: Showing %s %q", severity, message)

	if severity == Info {
		q.expiry = q.scheduler.After(q.infoDuration, func() {
			q.expiry = nil
			q.Hide(false)
		})
	}
}

// Hide clears the slot and resets the severity to Info. With
// suppressDuringStartup set, Hide does nothing while the severity is still
// Info.
func (q *Queue) Hide(suppressDuringStartup bool) {
	if suppressDuringStartup && q.severity == Info {
		return
	}

	q.expiry.Stop()
	q.expiry = nil

	q.active = Notification{}
	q.visible = false
	q.severity = Info
}

// Active returns the notification on display, if any.
func (q *Queue) Active() (Notification, bool) {
	return q.active, q.visible
}

// Severity is the severity a new notification must reach to be shown.
func (q *Queue) Severity() Severity {
	return q.severity
}
