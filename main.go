package main

import "github.com/artk-cli/artk/cmd"

func main() {
	cmd.Execute()
}
