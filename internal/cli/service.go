package cli

import (
	"github.com/chris/moodlog/internal/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the moodlog systemd user unit",
}

func init() {
	for _, c := range []struct {
		use, short string
		fn         func() error
	}{
		{"install", "Install and start the unit", service.Install},
		{"uninstall", "Stop and remove the unit", service.Uninstall},
		{"restart", "Restart the unit", service.Restart},
		{"status", "Show unit status", service.Status},
		{"logs", "Follow the unit's logs", service.Logs},
	} {
		fn := c.fn
		serviceCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			RunE:  func(cmd *cobra.Command, args []string) error { return fn() },
		})
	}
	rootCmd.AddCommand(serviceCmd)
}
