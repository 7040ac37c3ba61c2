package main

import "github.com/ghswitch/ghswitch/internal/cmd"

func main() {
	cmd.Execute()
}
