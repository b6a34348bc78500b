// Command liftctl scores leaderboards and searches exercise catalogs from
// local JSON files, without a running server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
