package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chris/moodlog/internal/mood"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var logSource string

var logCmd = &cobra.Command{
	Use:   "log <mood>",
	Short: "Log a mood reading (" + strings.Join(mood.LevelNames(), ", ") + ")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := mood.ParseLevel(args[0])
		if err != nil {
			return err
		}
		source, err := mood.ParseSource(logSource)
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, ev, err := a.journal.LogMood(level, source)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "logged %s at %s\n", r.Level, r.Timestamp.In(a.loc).Format("Mon 15:04"))
		if ev != nil {
			fmt.Fprintf(out, "  %s notification queued\n", ev.Type)
		}
		return nil
	},
}

var (
	settingsTimes    string
	settingsInterval int
	settingsPalette  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change prompt times, spacing and palette",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.journal.Settings()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if !flags.Changed("times") && !flags.Changed("interval") && !flags.Changed("palette") {
			printSettings(cmd.OutOrStdout(), s)
			return nil
		}
		if flags.Changed("times") {
			s.PromptTimes = splitTimes(settingsTimes)
		}
		if flags.Changed("interval") {
			s.MinimumIntervalMinutes = settingsInterval
		}
		if flags.Changed("palette") {
			s.Palette = settingsPalette
		}
		plan, err := a.journal.UpdateSettings(s)
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), s)
		fmt.Fprintf(cmd.OutOrStdout(), "%d prompts scheduled\n", len(plan))
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List notifications waiting to be delivered",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pending, err := a.db.ListScheduled()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(pending) == 0 {
			fmt.Fprintln(out, "nothing scheduled")
			return nil
		}
		for _, n := range pending {
			when := "now"
			if !n.Immediate {
				when = n.FireAt.In(a.loc).Format("Mon Jan 2 15:04") + " (" + humanize.Time(n.FireAt) + ")"
			}
			fmt.Fprintf(out, "%-40s %s\n", n.Identifier, when)
		}
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent mood readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		readings, err := a.db.ListRecentMoods(historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(readings) == 0 {
			fmt.Fprintln(out, "no readings yet")
			return nil
		}
		for _, r := range readings {
			fmt.Fprintf(out, "%-9s %-7s %s\n", r.Level, r.Source, humanize.Time(r.Timestamp))
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show when the encouragement and advisory rules fired",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.db.ListRuleEvents()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "no rule events")
			return nil
		}
		for _, ev := range events {
			fmt.Fprintf(out, "%-13s %s\n", ev.Type, humanize.Time(ev.TriggeredAt))
		}
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Replan the next week of prompts now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		plan, err := a.journal.Recompute()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d prompts scheduled\n", len(plan))
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logSource, "source", string(mood.SourceManual), "manual or widget")

	settingsCmd.Flags().StringVar(&settingsTimes, "times", "", `comma-separated HH:MM prompt times ("" clears them)`)
	settingsCmd.Flags().IntVar(&settingsInterval, "interval", 60, "minimum minutes between prompts (0 disables spacing)")
	settingsCmd.Flags().StringVar(&settingsPalette, "palette", "", "colour palette name")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of readings to show")
}

// splitTimes parses the --times flag. An empty value means no prompts.
func splitTimes(v string) []string {
	out := []string{}
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printSettings(w io.Writer, s mood.Settings) {
	times := strings.Join(s.PromptTimes, ", ")
	if times == "" {
		times = "(none)"
	}
	fmt.Fprintf(w, "prompt times: %s\n", times)
	fmt.Fprintf(w, "min interval: %s\n", time.Duration(s.MinimumIntervalMinutes)*time.Minute)
	fmt.Fprintf(w, "palette:      %s\n", s.Palette)
}
