/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package main

import "github.com/sbansal6/alpaca-mcp-server/cmd"

func main() {
	cmd.Execute()
}
