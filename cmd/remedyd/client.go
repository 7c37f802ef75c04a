package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/remedy/internal/core/requests"
	"github.com/zeusync/remedy/internal/server"
)

var (
	serverAddr    string
	clientTimeout = 5 * time.Second
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status line of a running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var resp server.StatusResponse
		if err := call(http.MethodGet, "/status", &resp); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
		return nil
	},
}

var requestCmd = &cobra.Command{
	Use:       "request <intent>",
	Short:     "Raise an operator request on a running daemon",
	Args:      cobra.ExactArgs(1),
	ValidArgs: intentNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent, err := requests.ParseIntent(args[0])
		if err != nil {
			return err
		}
		var resp server.RequestResponse
		if err = call(http.MethodPost, "/requests/"+intent.String(), &resp); err != nil {
			return err
		}
		if resp.Raised {
			fmt.Fprintf(cmd.OutOrStdout(), "%s requested\n", resp.Intent)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already pending\n", resp.Intent)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, requestCmd} {
		c.Flags().StringVarP(&serverAddr, "addr", "a", "127.0.0.1:8787", "operator surface address")
	}
}

func intentNames() []string {
	var out []string
	for _, i := range requests.Intents() {
		out = append(out, i.String())
	}
	return out
}

func call(method, path string, out any) error {
	req, err := http.NewRequest(method, "http://"+serverAddr+path, nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: clientTimeout}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
