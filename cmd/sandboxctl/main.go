// Package main implements the sandboxctl CLI tool.
// It provisions and tears down short-lived admin sandboxes with network
// access to a private cluster.
package main

import "sandboxctl/cmd/sandboxctl/cmd"

func main() {
	cmd.Execute()
}
