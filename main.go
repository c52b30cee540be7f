// Package main serves as the entry point for the entitysync application.
// It runs asynchronous entity sync and embedding jobs against an external
// system and serves semantic search over the resulting vectors.
package main

import "entitysync/cmd"

func main() {
	cmd.Execute()
}
