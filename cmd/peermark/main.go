// Package main provides the entry point for the peermark CLI.
//
// peermark finds DOIs in saved or fetched web pages, asks the PubPeer
// lookup service which of them have comments, and writes annotated copies
// of the pages with inline markers and a summary banner.
//
// Usage:
//
//	peermark annotate <url|file|glob>...
//	peermark hosts disable --mode forever <url>
//	peermark serve
//
// See --help for all available options.
package main

// main is the entry point for peermark.
func main() {
	Execute()
}
