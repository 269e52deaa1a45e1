package main

import "github.com/aussiebroadwan/pocketbook/cmd/auth/cmd"

func main() {
	cmd.Execute()
}
