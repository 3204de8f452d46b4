package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/smazurov/keylightd/internal/ec"
	"github.com/smazurov/keylightd/internal/logging"
	"github.com/spf13/cobra"
)

// CreateSetCmd creates the set command.
func CreateSetCmd() *cobra.Command {
	var ecInterface string
	var fade bool

	cmd := &cobra.Command{
		Use:   "set [percent]",
		Short: "Set the keyboard backlight brightness once and exit",
		Long: `Writes a brightness value to the embedded controller without starting ` +
			`the daemon. Useful for scripting and for verifying hardware access.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			percent, err := strconv.Atoi(args[0])
			if err != nil || percent < 0 || percent > 100 {
				fmt.Fprintf(os.Stderr, "Error: brightness must be an integer between 0 and 100\n")
				os.Exit(1)
			}

			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("ec")

			ch, err := ec.New(ecInterface, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer ch.Close()

			if fade {
				err = ec.FadeTo(ch, percent, 0)
			} else {
				err = ch.SetBrightness(percent)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to set brightness: %v\n", err)
				os.Exit(1)
			}

			fmt.Printf("Keyboard backlight set to %d%%\n", percent)
		},
	}

	cmd.Flags().StringVar(&ecInterface, "interface", "auto",
		"Embedded controller interface (auto, cros, port, noop)")
	cmd.Flags().BoolVar(&fade, "fade", false, "Ramp to the target brightness instead of jumping")

	return cmd
}
