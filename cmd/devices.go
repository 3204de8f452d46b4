package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/keylightd/pkg/linuxinput/evdev"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List input devices and how they are classified",
		Long: `Enumerates /dev/input event nodes and shows which ones the daemon ` +
			`would watch for activity. Keyboards and pointing devices count as ` +
			`activity sources; everything else is ignored.`,
		Run: func(_ *cobra.Command, _ []string) {
			find := evdev.FindDevices
			if all {
				find = evdev.FindAllDevices
			}
			devices, err := find()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to enumerate input devices: %v\n", err)
				os.Exit(1)
			}

			if len(devices) == 0 {
				fmt.Println("No input devices found")
				return
			}

			for _, dev := range devices {
				fmt.Printf("%-22s %-10s %s\n", dev.DevicePath, dev.Class, dev.DeviceName)
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include devices that are not activity sources")

	return cmd
}
