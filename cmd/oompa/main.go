// Package main is the entry point of the oompa social demo.
//
// The binary drives the in-memory stores from the command line:
//   - demo:   scripted walkthrough of a signed-in session
//   - login:  check an email against the demo community
//   - feed:   print the feed as a given user sees it
//   - inbox:  print a user's conversations
//   - worker: report analytics totals on an interval
//
// Analytics events can be mirrored to Redis Pub/Sub and a Postgres event
// log; see config for the OOMPA_* variables.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}
