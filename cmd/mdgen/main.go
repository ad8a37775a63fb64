// Command mdgen renders Markdown notes from JSON, YAML or CSV records.
//
// Usage:
//
//	mdgen [flags] DATA_FILE TEMPLATE_FILE
package main

import (
	"context"
	"os"
	"os/signal"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
