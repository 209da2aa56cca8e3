// streamtest connects to the support realtime endpoint and prints every routed event.
// Usage: go run ./cmd/streamtest --config configs/notifyd.local.yaml
//
// Required environment variables (when referenced by the config):
//
//	SUPPORT_TOKEN - Bearer token of the agent to connect as
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/supportdesk/internal/auth"
	"github.com/rickgao/supportdesk/internal/config"
	"github.com/rickgao/supportdesk/internal/console"
	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/router"
)

func main() {
	configPath := flag.String("config", "configs/notifyd.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	rooms := flag.String("rooms", "", "comma-separated rooms to join in addition to the configured ones")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	creds, err := auth.LoadCredentials(cfg.Auth.Token, cfg.Auth.TokenFile, &model.User{
		ID:      cfg.Auth.User.ID,
		IsAdmin: cfg.Auth.User.IsAdmin,
	})
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		logger.Info("Set auth.token or auth.token_file (e.g. token: ${SUPPORT_TOKEN})")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := console.New(console.ConfigFrom(cfg, strings.Split(*rooms, ",")...), creds, logger)

	for _, name := range console.Events {
		c.Router().On(name, func(ev router.Event) error {
			printEvent(ev, *verbose)
			return nil
		})
	}

	c.Initialize()
	logger.Debug("listeners registered", "listeners", c.Listeners())

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := c.Status()
				routerStats := c.Router().Stats()
				logger.Info("stats",
					"state", status.State,
					"attempts", status.Attempts,
					"notifications", status.Notifications,
					"unread", status.Unread,
					"events", routerStats.EventsDispatched,
					"handler_failures", routerStats.HandlerFailures,
					"unhandled", routerStats.Unhandled,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop", "url", cfg.Realtime.URL)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	c.Close()
	logger.Info("shutdown complete")
}

func printEvent(ev router.Event, verbose bool) {
	label := strings.ToUpper(ev.Name)
	ts := ev.ReceivedAt.Format(time.TimeOnly)

	if verbose && len(ev.Data) > 0 {
		var payload any
		if err := json.Unmarshal(ev.Data, &payload); err == nil {
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Printf("%s [%s] %s\n", ts, label, data)
			return
		}
	}

	switch ev.Name {
	case model.EventNewInquiry, model.EventInquiryUpdated:
		var inq model.Inquiry
		if json.Unmarshal(ev.Data, &inq) == nil {
			fmt.Printf("%s [%s] id=%d status=%s type=%s subject=%q\n",
				ts, label, inq.ID, inq.Status, inq.InquiryType, inq.Subject)
			return
		}
	case model.EventNewResponse:
		var resp model.Response
		if json.Unmarshal(ev.Data, &resp) == nil {
			fmt.Printf("%s [%s] id=%d inquiry=%d automated=%t\n",
				ts, label, resp.ID, resp.InquiryID, resp.IsAutomated)
			return
		}
	case model.EventEscalation:
		var esc model.Escalation
		if json.Unmarshal(ev.Data, &esc) == nil {
			fmt.Printf("%s [%s] inquiry=%d reason=%q\n", ts, label, esc.Inquiry.ID, esc.Reason)
			return
		}
	}

	fmt.Printf("%s [%s] %s\n", ts, label, ev.Data)
}
