package main

import "github.com/arcane-labs/arcane-cli/cmd"

func main() {
	cmd.Execute()
}
