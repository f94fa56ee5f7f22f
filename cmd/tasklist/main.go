// Command tasklist administers the item store from the shell.
//
//	tasklist list
//	tasklist add "Buy milk"
//	tasklist update <id> --completed
//	tasklist delete <id>
//	tasklist export --format yaml --out s3://backups/items.yaml
//
// It reads the same environment variables as the server (STORAGE_DRIVER,
// DB_PATH, POSTGRES_DSN, ...) and goes through the same service layer, so
// validation and ordering are identical to the web UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := NewCLI(os.Stdout, os.Stderr, os.Getenv)
	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
