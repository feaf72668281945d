package main

import "github.com/verdantlabs/plantguard/cmd/plantguard/cmd"

func main() {
	cmd.Execute()
}
