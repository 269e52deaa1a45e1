package main

import "github.com/aussiebroadwan/pocketbook/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}
