package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tejastrax/tejax/cli/chat"
	"github.com/tejastrax/tejax/cli/chats"
	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/backend/postgres"
	"github.com/tejastrax/tejax/internal/backend/sqlite"
	"github.com/tejastrax/tejax/internal/configuration"
	"github.com/tejastrax/tejax/internal/llm"
	"github.com/tejastrax/tejax/internal/theme"
)

const configFilepath = "~/.tejax/config.json"

var rootCmd = &cobra.Command{
	Use:     "tejax",
	Short:   "A terminal chat client",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}
	theme.Init(config.Theme)

	responder := llm.NewClient(config)

	var apiClient api.Client
	switch config.Backend {
	case "sqlite", "":
		store, err := sqlite.New(config.DatabasePath, responder)
		if err != nil {
			panic(err)
		}
		defer store.Close()
		apiClient = store

	case "postgres":
		store, err := postgres.New(context.Background(), config.PostgresDSN, responder)
		if err != nil {
			panic(err)
		}
		defer store.Close()
		apiClient = store

	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", config.Backend)
		os.Exit(1)
	}

	rootCmd.AddCommand(chat.NewCmd(config, configFilepath, apiClient))
	rootCmd.AddCommand(chats.NewCmd(apiClient))
	rootCmd.Execute()
}
