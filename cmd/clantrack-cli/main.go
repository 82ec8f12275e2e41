package main

import (
	"context"

	"clantrack-backend/cmd/clantrack-cli/commands"
	"clantrack-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
