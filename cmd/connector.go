package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/austin-smith/fusion-bridge/connector"
	"github.com/austin-smith/fusion-bridge/pkg/clierr"
	"github.com/austin-smith/fusion-bridge/yolink"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// connectorCmd groups the connector management subcommands.
func connectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector",
		Short: "Manage platform connectors",
	}

	cmd.AddCommand(
		connectorAddCmd(),
		connectorListCmd(),
		connectorTestCmd(),
		connectorRemoveCmd(),
	)

	return cmd
}

// connectorAddCmd registers a new YoLink connector. The client secret is
// always prompted for so it never lands in shell history.
func connectorAddCmd() *cobra.Command {
	var name, clientID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new YoLink connector",
		Long:  "Register a new YoLink connector using the UAC credentials from the YoLink app",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = promptForInput("Connector name: ")
			}
			if clientID == "" {
				clientID = promptForInput("Client ID (UAID): ")
			}
			clientSecret := promptForPassword("Client secret: ")

			conn, err := buildService().Register(cmd.Context(), name, clientID, clientSecret)
			if err != nil {
				var authErr *yolink.AuthError
				if errors.As(err, &authErr) {
					return clierr.New(clierr.Connection, "The platform rejected the credentials. Check the client ID and secret.", err)
				}
				return clierr.New(clierr.Internal, "Failed to register the connector.", err)
			}

			cmd.Printf("Connector %q registered with ID %s.\n", conn.Name, conn.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name for the connector")
	cmd.Flags().StringVarP(&clientID, "client-id", "c", "", "YoLink UAC client ID")

	return cmd
}

func connectorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the registered connectors",
		RunE:  listConnectors,
	}
}

func listConnectors(cmd *cobra.Command, args []string) error {
	connectors, err := buildService().Connectors.List(cmd.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch connectors from the database.")
		return clierr.New(clierr.Internal, "Unable to list connectors.", err)
	}

	if len(connectors) == 0 {
		cmd.Println("No connectors registered. Use `fusion-bridge connector add` to register one.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Category", "Home ID"})

	// Table appearance settings
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	for _, conn := range connectors {
		var cfg yolink.Config
		_ = json.Unmarshal([]byte(conn.Config), &cfg)
		table.Append([]string{conn.ID, conn.Name, conn.Category, cfg.HomeID})
	}

	table.Render()
	return nil
}

func connectorTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [connectorID]",
		Short: "Test a connector's credentials against the platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := buildService().TestConnection(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, connector.ErrConnectorNotFound) {
					return clierr.New(clierr.NotFound, "No connector found with the specified ID.", err)
				}
				return clierr.New(clierr.Internal, "Failed to run the connection test.", err)
			}

			if ok {
				cmd.Println("Connection test passed.")
			} else {
				cmd.Println("Connection test failed. Check the logs for details.")
			}
			return nil
		},
	}
	return cmd
}

func connectorRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [connectorID]",
		Short: "Remove a connector and its devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := buildService().Remove(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, connector.ErrConnectorNotFound) {
					return clierr.New(clierr.NotFound, "No connector found with the specified ID.", err)
				}
				return clierr.New(clierr.Internal, "Failed to remove the connector.", err)
			}
			cmd.Println("Connector removed.")
			return nil
		},
	}
	return cmd
}

// promptForInput prompts the user for input and returns the trimmed string.
func promptForInput(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error: Failed to read input.")
		os.Exit(1)
	}
	return strings.TrimSpace(input)
}

// promptForPassword prompts the user for a secret without echoing it.
func promptForPassword(prompt string) string {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println("Error: Failed to read secret.")
		os.Exit(1)
	}
	fmt.Println()
	return strings.TrimSpace(string(secret))
}
