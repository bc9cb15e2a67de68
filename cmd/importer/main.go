// Command importer runs anagraphic imports from JSON files against the database.
//
//	importer preview --kind clients --file rows.json
//	importer commit  --kind clients --file rows.json
//	importer migrate
//	importer kinds
package main

import (
	"fmt"
	"os"

	_ "github.com/JonMunkholm/secops/internal/core/kinds" // Register all kinds
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
