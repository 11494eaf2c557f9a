package main

import (
	"fmt"
	"os"

	"github.com/taskmaster/tracker/cmd/api/commands"
)

// @title TaskMaster API
// @version 1.0
// @description Multi-user task tracker with categories and tags

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		os.Exit(1)
	}
}
