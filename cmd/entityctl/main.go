// Package main implements the entityctl CLI for manual operations against a
// running entityd gateway.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the entityd gateway
	serverURL string
	// version information
	version = "dev"

	searchTypes string
	searchLimit int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "entityctl",
	Short: "CLI for entityd gateway operations",
	Long: `entityctl is a command-line interface for interacting with the entityd
gateway. It provides commands for searching entities, fetching and deleting
them by ID, and checking gateway health and store statistics.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "entityd server URL")

	searchCmd.Flags().StringVar(&searchTypes, "types", "", "comma-separated entity kinds to search")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check entityd gateway health",
	RunE:  runHealth,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-kind store statistics",
	RunE:  runStats,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entities across kinds",
	Long: `Search entities across all kinds, or a subset of kinds.

Examples:
  # Search everything
  entityctl search "dentist appointment"

  # Restrict to tasks and events
  entityctl search --types task,event "dentist"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch an entity by its opaque ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more entities by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func runHealth(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runStats(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/api/stats", nil)
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runSearch(cmd *cobra.Command, args []string) error {
	payload := map[string]any{
		"query": args[0],
		"limit": searchLimit,
	}
	if searchTypes != "" {
		payload["types"] = searchTypes
	}
	body, err := doRequest(http.MethodPost, "/api/search", payload)
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runGet(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodGet, "/api/entities/"+args[0], nil)
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runDelete(cmd *cobra.Command, args []string) error {
	body, err := doRequest(http.MethodPost, "/api/entities/delete", map[string]any{"ids": args})
	if err != nil {
		return err
	}
	return printJSON(body)
}

// doRequest issues one request to the gateway and returns the response body.
// Non-2xx responses surface the body as the error message, since the gateway
// always answers with an {"error": ...} envelope.
func doRequest(method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed (is entityd running at %s?): %w", serverURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// printJSON pretty-prints a JSON response body to stdout.
func printJSON(body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
