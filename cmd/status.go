package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/keylightd/internal/ec"
	"github.com/smazurov/keylightd/internal/logging"
	"github.com/spf13/cobra"
)

// CreateStatusCmd creates the status command.
func CreateStatusCmd() *cobra.Command {
	var ecInterface string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current keyboard backlight brightness",
		Long: `Opens the embedded controller directly and reads the current keyboard ` +
			`backlight brightness. Requires the same privileges as the daemon.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("ec")

			ch, err := ec.New(ecInterface, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer ch.Close()

			brightness, err := ch.Brightness()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to read brightness: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Keyboard backlight: %d%%\n", brightness)
		},
	}

	cmd.Flags().StringVar(&ecInterface, "interface", "auto",
		"Embedded controller interface (auto, cros, port, noop)")

	return cmd
}
