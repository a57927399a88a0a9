package main

import "github.com/dwg-systems/pos-updater/cmd/pos-publisher/cmd"

func main() {
	cmd.Execute()
}
