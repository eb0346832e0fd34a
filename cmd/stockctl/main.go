package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"stockctl/cli"
)

func main() {
	// optional: a missing .env is fine
	_ = godotenv.Load()

	if err := cli.Execute(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
