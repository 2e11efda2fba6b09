// Package main provides the entry point for the rastro CLI.
//
// rastro pivots across identifier types (IPs, domains, emails, usernames,
// phones, wallets, Discord handles) and correlates what the open sources
// return about them.
//
// Usage:
//
//	rastro scan <identifier>
//	rastro scan --attach photo.jpg <identifier>
//
// See --help for all available options.
package main

// main is the entry point for rastro.
func main() {
	Execute()
}
