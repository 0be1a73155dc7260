package main

import "github.com/meri-imperiumi/signalk-logbook/internal/cmd"

func main() {
	cmd.Execute()
}
