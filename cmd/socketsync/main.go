// Command socketsync checks a running server end to end: two users create an
// organization each, one joins its summary room and the other invites it to
// an event. The check passes when the summary update arrives with the new
// event counted.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/logging"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
	"github.com/DoyleJ11/league-backend/pkg/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	baseURL  string
	password string
	timeout  time.Duration
	logLevel string
}

func newCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "socketsync",
		Short:        "Check cross-organization summary updates against a running server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(o.logLevel, "console")
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			if err := run(ctx, o, log); err != nil {
				log.Error("socket sync check failed", zap.Error(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&o.baseURL, "url", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&o.password, "password", "socketsync-password", "password for the generated users")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 15*time.Second, "overall deadline")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "log level")
	return cmd
}

func run(ctx context.Context, o options, log *zap.Logger) error {
	base, err := url.Parse(strings.TrimRight(o.baseURL, "/"))
	if err != nil {
		return fmt.Errorf("bad --url: %w", err)
	}
	runID := uuid.NewString()[:8]

	owner, err := connect(ctx, base, "owner-"+runID+"@socketsync.test", o.password, log.Named("owner"))
	if err != nil {
		return err
	}
	host, err := connect(ctx, base, "host-"+runID+"@socketsync.test", o.password, log.Named("host"))
	if err != nil {
		return err
	}

	var orgA, orgB domain.OrganizationSummary
	if err := submit(ctx, owner, protocol.ActAddOrg, map[string]string{"name": "Sync A " + runID}, &orgA); err != nil {
		return err
	}
	if err := submit(ctx, host, protocol.ActAddOrg, map[string]string{"name": "Sync B " + runID}, &orgB); err != nil {
		return err
	}
	log.Info("organizations created", zap.String("org_a", orgA.ID), zap.String("org_b", orgB.ID))

	room := protocol.OrgSummaryRoom(orgA.ID)
	if err := owner.JoinRoom(ctx, room); err != nil {
		return fmt.Errorf("join %s: %w", room, err)
	}
	got := make(chan domain.OrganizationSummary, 8)
	defer owner.OnChange(func(c store.Change) {
		if c.Type == protocol.UpdOrganizations && c.Room == room {
			if s, ok := owner.Organization(orgA.ID); ok {
				select {
				case got <- s:
				default:
				}
			}
		}
	})()

	var event domain.Event
	if err := submit(ctx, host, protocol.ActAddEvent, map[string]any{
		"organizationId":    orgB.ID,
		"name":              "Sync check " + runID,
		"startsAt":          time.Now().Add(time.Hour).UTC(),
		"participantOrgIds": []string{orgA.ID},
	}, &event); err != nil {
		return err
	}
	log.Info("event created", zap.String("event_id", event.ID))

	for {
		select {
		case s := <-got:
			if s.EventCount == 1 {
				log.Info("summary updated", zap.String("room", room), zap.Int("event_count", s.EventCount))
				return nil
			}
			log.Warn("unexpected summary", zap.Int("event_count", s.EventCount))
		case <-ctx.Done():
			return fmt.Errorf("no ORGANIZATIONS_UPDATED on %s: %w", room, ctx.Err())
		}
	}
}

// connect signs a user up and starts a store on its session.
func connect(ctx context.Context, base *url.URL, email, password string, log *zap.Logger) (*store.Store, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	body, err := json.Marshal(map[string]string{"name": email, "email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+"/api/auth/signup", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signup %s: %w", email, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("signup %s: status %d", email, resp.StatusCode)
	}

	wsURL := *base
	wsURL.Scheme = strings.Replace(base.Scheme, "http", "ws", 1)
	wsURL.Path += "/ws"
	s := store.New(wsURL.String(), store.WithHTTPClient(&http.Client{Jar: jar}), store.WithLogger(log))
	go func() {
		if err := s.Run(ctx); err != nil {
			log.Warn("store stopped", zap.Error(err))
		}
	}()
	if err := s.WaitConnected(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", wsURL.String(), err)
	}
	return s, nil
}

func submit(ctx context.Context, s *store.Store, action string, payload, out any) error {
	ack, err := s.Submit(ctx, action, payload)
	var ackErr *store.AckError
	if errors.As(err, &ackErr) {
		return fmt.Errorf("%s rejected: %s", action, ack.Error)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return json.Unmarshal(ack.Data, out)
}
