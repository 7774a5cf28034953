// Package main is the entry point for the rendergate CLI.
package main

import "rendergate.dev/pkg/rendergate/cmd"

func main() {
	cmd.Execute()
}
