package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuarenArt/peerjam/internal/config"
)

const version = "1.0.0"

// rootCmd serves when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "peerjam",
	Short: "WebRTC signaling relay for two-person rooms",
	Long: `PeerJam pairs browsers into two-member rooms and relays their WebRTC
offers, answers, ICE candidates and chat messages over WebSocket. Media never
passes through the server.`,
	Version: version,
	RunE:    runServe,
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
