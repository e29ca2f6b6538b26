package main

import "github.com/socialconnect/cli/internal/cmd"

func main() {
	cmd.Execute()
}
