// Package shell is the privileged side of peermark: the long-running
// process that owns the host opt-out state and tells pages whether to
// annotate.
//
// Server exposes the host gate over HTTP, Client talks to it, and Local
// adapts an in-process gate for commands that run without a server.
package shell
