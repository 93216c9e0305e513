package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Seednode/partybox-client/conn"
	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/session"
	"github.com/Seednode/partybox-client/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	connectTimeout time.Duration
	infoDuration   time.Duration
	joinURL        string
	port           int
	prefix         string
	profile        bool
	profileName    string
	qr             bool
	reconnectDelay time.Duration
	server         string
	tick           time.Duration
	tokenStore     string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	u, err := url.Parse(c.server)
	if err != nil {
		return fmt.Errorf("invalid --server: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid --server (must be a ws:// or wss:// url): %s", c.server)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid --server (missing host): %s", c.server)
	}

	for name, d := range map[string]time.Duration{
		"--connect-timeout": c.connectTimeout,
		"--info-duration":   c.infoDuration,
		"--reconnect-delay": c.reconnectDelay,
		"--tick":            c.tick,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s (must be positive): %s", name, d)
		}
	}

	if c.port < 0 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 0-65535 inclusive): %d", c.port)
	}

	if c.tokenStore == "" {
		return errors.New("--token-store cannot be empty")
	}

	if c.joinURL != "" {
		j, err := url.Parse(c.joinURL)
		if err != nil || (j.Scheme != "http" && j.Scheme != "https") {
			return fmt.Errorf("invalid --join-url (must be an http:// or https:// url): %s", c.joinURL)
		}
	}
	if c.qr && c.joinURL == "" {
		return errors.New("--qr requires --join-url")
	}

	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PARTYBOX_CLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partybox-client",
		Short:         "Terminal client for partybox game rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "127.0.0.1", "address to bind the status server to (env: PARTYBOX_CLIENT_BIND)")
	fs.DurationVar(&cfg.connectTimeout, "connect-timeout", conn.DefaultConnectTimeout, "time to wait for the server to accept a connection (env: PARTYBOX_CLIENT_CONNECT_TIMEOUT)")
	fs.DurationVar(&cfg.infoDuration, "info-duration", notify.DefaultInfoDuration, "time informational messages stay on screen (env: PARTYBOX_CLIENT_INFO_DURATION)")
	fs.StringVar(&cfg.joinURL, "join-url", "", "web address players open to join a room (env: PARTYBOX_CLIENT_JOIN_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 0, "port for the local status server, 0 to disable (env: PARTYBOX_CLIENT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all status URLs, for use behind reverse proxy (env: PARTYBOX_CLIENT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PARTYBOX_CLIENT_PROFILE)")
	fs.StringVar(&cfg.profileName, "profile-name", "default", "name of the saved session, for running several clients (env: PARTYBOX_CLIENT_PROFILE_NAME)")
	fs.BoolVar(&cfg.qr, "qr", false, "print a QR code of the join link while hosting a lobby (env: PARTYBOX_CLIENT_QR)")
	fs.DurationVar(&cfg.reconnectDelay, "reconnect-delay", conn.DefaultReconnectDelay, "time to wait before reconnecting (env: PARTYBOX_CLIENT_RECONNECT_DELAY)")
	fs.StringVarP(&cfg.server, "server", "s", "ws://localhost:8080/ws", "game server websocket url (env: PARTYBOX_CLIENT_SERVER)")
	fs.DurationVar(&cfg.tick, "tick", session.DefaultTick, "round countdown refresh interval (env: PARTYBOX_CLIENT_TICK)")
	fs.StringVar(&cfg.tokenStore, "token-store", store.DefaultPath(), "session file path, or redis:// url (env: PARTYBOX_CLIENT_TOKEN_STORE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PARTYBOX_CLIENT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PARTYBOX_CLIENT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partybox-client v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
