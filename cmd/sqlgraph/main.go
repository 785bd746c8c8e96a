// Command sqlgraph builds column-level lineage graphs of SQL statements.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlgraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
