package main

import (
	"context"

	"aags-annotator/cmd/aags/cmd"
	"aags-annotator/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()

	cmd.Execute(ctx)
}
