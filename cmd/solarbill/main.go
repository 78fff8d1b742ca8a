package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// the default location must resolve on hosts without a zoneinfo database
	_ "time/tzdata"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if interrupted {
		fmt.Fprintln(os.Stderr, "solarbill: interrupted")
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "solarbill: %v\n", err)
		os.Exit(1)
	}
}
