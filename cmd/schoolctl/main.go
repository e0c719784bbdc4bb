// Command schoolctl runs maintenance tasks against a schoolyard deployment.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(openBackend).Execute(); err != nil {
		os.Exit(1)
	}
}
