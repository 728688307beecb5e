package cmd

import (
	"os"

	"github.com/austin-smith/fusion-bridge/db"
	"github.com/austin-smith/fusion-bridge/pkg/clierr"
	"github.com/austin-smith/fusion-bridge/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// eventsCmd shows the recent entries of the event feed.
func eventsCmd() *cobra.Command {
	var connectorID string
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent bridge events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEvents(cmd, connectorID, limit)
		},
	}

	cmd.Flags().StringVarP(&connectorID, "connector", "c", "", "Only show events of this connector")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum number of events to show [1-500]")

	return cmd
}

func listEvents(cmd *cobra.Command, connectorID string, limit int) error {
	if err := validation.ValidateEventLimit(limit); err != nil {
		return clierr.New(clierr.Validation, err.Error(), nil)
	}

	svc := buildService()

	var (
		events []db.Event
		err    error
	)
	if connectorID != "" {
		events, err = svc.Events.ListByConnector(cmd.Context(), connectorID, limit)
	} else {
		events, err = svc.Events.ListRecent(cmd.Context(), limit)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch events from the database.")
		return clierr.New(clierr.Internal, "Unable to list events.", err)
	}

	if len(events) == 0 {
		cmd.Println("No events recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Type", "Connector", "Device", "Payload"})
	table.SetColMinWidth(4, 30)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for _, e := range events {
		table.Append([]string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Type,
			e.ConnectorID,
			e.DeviceID,
			e.Payload,
		})
	}

	table.Render()
	return nil
}
