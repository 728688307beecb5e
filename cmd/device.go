package cmd

import (
	"errors"
	"os"

	"github.com/austin-smith/fusion-bridge/connector"
	"github.com/austin-smith/fusion-bridge/db"
	"github.com/austin-smith/fusion-bridge/pkg/clierr"
	"github.com/austin-smith/fusion-bridge/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// deviceCmd groups the device registry subcommands.
func deviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage the device registry",
	}

	cmd.AddCommand(
		deviceListCmd(),
		deviceSyncCmd(),
		deviceStateCmd(),
	)

	return cmd
}

func deviceListCmd() *cobra.Command {
	var connectorID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the devices in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices(cmd, connectorID)
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Only show devices of this connector")
	return cmd
}

func listDevices(cmd *cobra.Command, connectorID string) error {
	svc := buildService()

	var (
		devices []db.Device
		err     error
	)
	if connectorID != "" {
		devices, err = svc.Devices.ListByConnector(cmd.Context(), connectorID)
	} else {
		devices, err = svc.Devices.List(cmd.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch devices from the registry.")
		return clierr.New(clierr.Internal, "Unable to list devices.", err)
	}

	if len(devices) == 0 {
		cmd.Println("No devices in the registry. Use `fusion-bridge device sync` to pull them from the platform.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Device ID", "Name", "Type", "Connector", "State"})
	table.SetColMinWidth(1, 30)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for _, d := range devices {
		table.Append([]string{d.DeviceID, d.Name, d.Type, d.ConnectorID, d.State})
	}

	table.Render()
	return nil
}

func deviceSyncCmd() *cobra.Command {
	var connectorID string
	var withState bool
	var numWorkers int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the device list from the platform into the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncDevices(cmd, connectorID, withState, numWorkers)
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Connector to sync (required)")
	cmd.Flags().BoolVarP(&withState, "with-state", "s", false, "Also read each device's current state? [true, false]")
	cmd.Flags().IntVarP(&numWorkers, "workers", "w", 4, "Number of worker threads for state reads [1-20]")
	if err := cmd.MarkFlagRequired("connector"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'connector' flag as required")
	}

	return cmd
}

func syncDevices(cmd *cobra.Command, connectorID string, withState bool, numWorkers int) error {
	if err := validation.ValidateWorkerCount(numWorkers); err != nil {
		return clierr.New(clierr.Validation, err.Error(), nil)
	}

	svc := buildService()
	opts := connector.SyncOptions{WithState: withState, Workers: numWorkers}

	var bar *progressbar.ProgressBar
	if withState {
		// Total is unknown until the device list arrives; -1 renders a spinner.
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Reading device states..."),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		opts.OnDeviceDone = func() { _ = bar.Add(1) }
	}

	result, err := svc.SyncDevices(cmd.Context(), connectorID, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if errors.Is(err, connector.ErrConnectorNotFound) {
			return clierr.New(clierr.NotFound, "No connector found with the specified ID.", err)
		}
		return clierr.New(clierr.Connection, "Device sync failed. Check the logs for details.", err)
	}

	cmd.Printf("Sync completed: %d devices", result.Total)
	if withState {
		cmd.Printf(", %d states read, %d errors", result.StatesFetched, result.StateErrors)
	}
	cmd.Println()
	return nil
}

func deviceStateCmd() *cobra.Command {
	var connectorID string
	var state string

	cmd := &cobra.Command{
		Use:   "state [deviceID]",
		Short: "Read or set a device's state",
		Long:  "Read a device's current state, or set it with --set open|close",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deviceState(cmd, connectorID, args[0], state)
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Connector the device belongs to (required)")
	cmd.Flags().StringVarP(&state, "set", "s", "", "Target state to set [open, close]; omit to read")
	if err := cmd.MarkFlagRequired("connector"); err != nil {
		log.Error().Err(err).Msg("Failed to mark 'connector' flag as required")
	}

	return cmd
}

func deviceState(cmd *cobra.Command, connectorID, deviceID, state string) error {
	svc := buildService()

	if state != "" {
		if err := validation.ValidateDeviceState(state); err != nil {
			return clierr.New(clierr.Validation, err.Error(), nil)
		}
		data, err := svc.SetDeviceState(cmd.Context(), connectorID, deviceID, state)
		if err != nil {
			return deviceStateError(err)
		}
		cmd.Printf("Device state set to %q.\n%s\n", state, string(data))
		return nil
	}

	data, err := svc.GetDeviceState(cmd.Context(), connectorID, deviceID)
	if err != nil {
		return deviceStateError(err)
	}
	cmd.Println(string(data))
	return nil
}

func deviceStateError(err error) error {
	switch {
	case errors.Is(err, connector.ErrConnectorNotFound):
		return clierr.New(clierr.NotFound, "No connector found with the specified ID.", err)
	case errors.Is(err, connector.ErrDeviceNotFound):
		return clierr.New(clierr.NotFound, "No device found with the specified ID. Run `fusion-bridge device sync` first.", err)
	default:
		return clierr.New(clierr.Connection, "The device operation failed. Check the logs for details.", err)
	}
}
