package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "posts",
	Short: "Posts microservice",
	Long:  `A posts microservice providing user registration, cookie-based JWT sessions and per-user post management over HTTP, with a gRPC session lookup for internal services.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
