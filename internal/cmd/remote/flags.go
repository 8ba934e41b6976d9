package remote

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dashwire/pulse/pkg/constants"
)

// AddFlags registers the connection flags shared by commands that talk to
// a running server.
func AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "",
		"Server base URL (default "+DefaultServerURL+", or $PULSE_SERVER)")
	cmd.Flags().String("api-key", "",
		"API key for authenticated servers (default $PULSE_API_KEY)")
	cmd.Flags().Duration("timeout", constants.DefaultTimeout,
		"Management request timeout")
}

// NewFromCommand builds a client from a command's connection flags,
// falling back to PULSE_SERVER and PULSE_API_KEY.
func NewFromCommand(cmd *cobra.Command) (*Client, error) {
	serverURL, err := cmd.Flags().GetString("server")
	if err != nil {
		return nil, fmt.Errorf("reading server flag: %w", err)
	}
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, fmt.Errorf("reading api-key flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, fmt.Errorf("reading timeout flag: %w", err)
	}

	if serverURL == "" {
		serverURL = os.Getenv("PULSE_SERVER")
	}
	if apiKey == "" {
		apiKey = os.Getenv("PULSE_API_KEY")
	}

	return New(serverURL, apiKey, timeout), nil
}

// BaseURL returns the server address the client queries.
func (c *Client) BaseURL() string { return c.baseURL }
