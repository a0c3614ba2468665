package main

import "github.com/electora/rollscan/cmd/rollscan/cmd"

func main() {
	cmd.Execute()
}
