package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/moodlog/internal/discord"
	"github.com/chris/moodlog/internal/scheduler"
	"github.com/chris/moodlog/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API, the prompt scheduler and the Discord bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var dmSend func(userID, content string) error
	if a.cfg.DiscordToken != "" {
		bot, err := discord.NewBot(a.cfg.DiscordToken, a.journal, a.db)
		if err != nil {
			return fmt.Errorf("start discord bot: %w", err)
		}
		defer bot.Close()
		dmSend = bot.SendDM
		fmt.Fprintln(os.Stderr, "  discord: connected")
	} else if a.cfg.DiscordWebhook == "" {
		fmt.Fprintln(os.Stderr, "warning: no Discord token or webhook, notifications will queue undelivered")
	}

	sched := scheduler.New(a.journal, a.db, a.loc, a.cfg.DiscordWebhook, dmSend)
	if err := sched.Start(a.cfg.RecomputeCron); err != nil {
		return err
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:    a.cfg.ListenAddr,
		Handler: server.New(a.journal, a.db, VersionString()),
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "moodlog serving on %s\n", a.cfg.ListenAddr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", a.cfg.DatabasePath)
		fmt.Fprintf(os.Stderr, "  zone: %s\n", a.loc)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
