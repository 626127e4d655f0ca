/*
main.go - Application entry point

EXAMPLES:
  # Run the API on a file database
  partsledger serve --db ./data/parts.db --port 8080

  # Throwaway in-memory ledger with readable logs
  partsledger serve --db :memory: --env development

  # Record and inspect from the shell
  partsledger purchase --name "Hex Bolt M8" --number HB-M8 -q 200 --price 0.12
  partsledger stock
  partsledger stock --server http://127.0.0.1:8080 --format json

ENVIRONMENT:
  PARTSLEDGER_DB_PATH, PARTSLEDGER_HTTP_PORT, PARTSLEDGER_LOG_LEVEL, ...
  (any config key, dots replaced by underscores). A .env file in the
  working directory is loaded first.

SEE ALSO:
  - cli/root.go: Command tree and global flags
  - cli/serve.go: Server startup and graceful shutdown
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/parts-ledger/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
