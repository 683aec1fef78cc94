package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/tourneyapi"
	"github.com/vgurov/americano/internal/util/signal"
	"github.com/vgurov/americano/internal/version"
)

var rootCmd = &cobra.Command{
	Version: version.Version,
	Use:     "americano",
	Short:   "Admin CLI for the americano tournament server",
}

var (
	flagEndpoint string
	flagToken    string
)

func makeClient() *tourneyapi.Client {
	token := flagToken
	if token == "" {
		token = os.Getenv("AMERICANO_TOKEN")
	}
	return tourneyapi.NewClient(tourneyapi.ClientOptions{
		Endpoint: flagEndpoint,
		Token:    token,
	}, nil)
}

func cmdContext() (context.Context, func()) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	p := rootCmd.PersistentFlags()
	p.StringVarP(&flagEndpoint, "endpoint", "e", "http://127.0.0.1:8080/api", "server API endpoint")
	p.StringVarP(&flagToken, "token", "t", "", "admin token (or AMERICANO_TOKEN env)")

	rootCmd.AddCommand(tournamentCmd)
	rootCmd.AddCommand(regCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(overridesCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
