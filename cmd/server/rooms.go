package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/YuarenArt/peerjam/internal/server"
)

var flagServer string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List live rooms on a running server",
	Long: `List the rooms of a running server with their members and caller.

Examples:
  peerjam rooms
  peerjam rooms --server https://signal.example.com`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rooms, err := fetchRooms(cmd.Context(), flagServer)
		if err != nil {
			return err
		}
		renderRooms(cmd.OutOrStdout(), rooms)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)

	roomsCmd.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "Base URL of the server")
}

func fetchRooms(ctx context.Context, baseURL string) ([]server.RoomResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server answered %s", resp.Status)
	}

	var rooms []server.RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

func renderRooms(w io.Writer, rooms []server.RoomResponse) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, "No rooms")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Room", "Members", "Caller"})
	for _, r := range rooms {
		t.AppendRow(table.Row{r.Room, r.MemberCount, r.CallerID})
	}
	t.AppendFooter(table.Row{"Total", len(rooms), ""})
	t.Render()
}
