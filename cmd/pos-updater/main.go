package main

import "github.com/dwg-systems/pos-updater/cmd/pos-updater/cmd"

func main() {
	cmd.Execute()
}
