package scheduler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chris/moodlog/internal/journal"
	"github.com/chris/moodlog/internal/metrics"
	"github.com/chris/moodlog/internal/mood"
	"github.com/robfig/cron/v3"
)

// ExpireAfter bounds how late a prompt may still be delivered, e.g. after the
// daemon was down. Immediate rule notifications never expire.
const ExpireAfter = time.Hour

// DiscordUserNote is the note key holding the user to DM.
const DiscordUserNote = "discord_user_id"

var errNoDelivery = errors.New("no delivery method available (no DM user and no webhook)")

// Outbox is the delivery side of the notification sink.
type Outbox interface {
	ListDue(now time.Time) ([]mood.Notification, error)
	MarkDelivered(identifier string, at time.Time) error
	GetNote(key string) (string, error)
}

// Scheduler runs the background passes: a cron-driven prompt recompute that
// keeps the 7-day horizon rolling, and a once-a-minute delivery of due
// notifications.
type Scheduler struct {
	cron       *cron.Cron
	journal    *journal.Journal
	outbox     Outbox
	webhookURL string
	dmSend     func(userID, content string) error
	httpClient *http.Client
}

func New(j *journal.Journal, outbox Outbox, loc *time.Location, webhookURL string, dmSend func(userID, content string) error) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		journal:    j,
		outbox:     outbox,
		webhookURL: webhookURL,
		dmSend:     dmSend,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Start delivers whatever came due while the daemon was down, recomputes once,
// then registers the recompute and delivery entries.
func (s *Scheduler) Start(recomputeSpec string) error {
	if _, err := s.cron.AddFunc(recomputeSpec, s.recompute); err != nil {
		return fmt.Errorf("invalid recompute cron %q: %w", recomputeSpec, err)
	}
	if _, err := s.cron.AddFunc("@every 1m", func() { s.FireDue(s.journal.Now()) }); err != nil {
		return fmt.Errorf("registering delivery: %w", err)
	}
	s.FireDue(s.journal.Now())
	s.recompute()
	s.cron.Start()
	log.Printf("scheduler started (recompute %q)", recomputeSpec)
	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recompute() {
	plan, err := s.journal.Recompute()
	if err != nil {
		// already reported by the prompt scheduler
		return
	}
	log.Printf("scheduler: %d prompt(s) pending", len(plan))
}

// FireDue delivers every due notification. Failed deliveries stay pending and are
// retried on the next tick unless the prompt has gone stale.
func (s *Scheduler) FireDue(now time.Time) {
	due, err := s.outbox.ListDue(now)
	if err != nil {
		log.Printf("scheduler: listing due notifications: %v", err)
		return
	}
	for _, n := range due {
		label := fmt.Sprintf("notification[%s]", n.Identifier)
		if !n.Immediate && now.Sub(n.FireAt) > ExpireAfter {
			if err := s.outbox.MarkDelivered(n.Identifier, now); err != nil {
				log.Printf("%s: expiring: %v", label, err)
			}
			metrics.Deliveries.WithLabelValues("none", "expired").Inc()
			log.Printf("%s: expired undelivered", label)
			continue
		}
		if err := s.deliver(label, n.Title+"\n"+n.Body); err != nil {
			log.Printf("%s: %v", label, err)
			continue
		}
		if err := s.outbox.MarkDelivered(n.Identifier, now); err != nil {
			log.Printf("%s: marking delivered: %v", label, err)
		}
	}
}

func (s *Scheduler) deliver(label, content string) error {
	// Try DM first
	if s.dmSend != nil {
		userID, err := s.outbox.GetNote(DiscordUserNote)
		if err == nil && userID != "" {
			if err := s.dmSend(userID, content); err != nil {
				metrics.Deliveries.WithLabelValues("dm", "error").Inc()
				log.Printf("%s: DM send failed: %v", label, err)
			} else {
				metrics.Deliveries.WithLabelValues("dm", "ok").Inc()
				return nil
			}
		}
	}
	// Fall back to webhook
	if s.webhookURL != "" {
		if err := s.postWebhook(content); err != nil {
			metrics.Deliveries.WithLabelValues("webhook", "error").Inc()
			return fmt.Errorf("webhook failed: %w", err)
		}
		metrics.Deliveries.WithLabelValues("webhook", "ok").Inc()
		return nil
	}
	return errNoDelivery
}

func (s *Scheduler) postWebhook(content string) error {
	payload := map[string]string{"content": content}
	body, _ := json.Marshal(payload)
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
