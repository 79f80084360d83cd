// Command valuator values listed equities from the command line or over HTTP.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"equity-valuator/internal/cli"
)

func main() {
	// Optional .env with OPENAI_API_KEY, REDIS_PASSWORD and VALUATOR_* overrides.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
