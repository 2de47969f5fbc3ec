package main

import "github.com/frahmantamala/crew-timekeeping/cmd"

func main() {
	cmd.Execute()
}
