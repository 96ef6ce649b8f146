package main

import "github.com/kamusis/docindex-cli/cmd"

func main() {
	cmd.Execute()
}
