package main

import "github.com/mj1618/game-bridge/cmd"

func main() {
	cmd.Execute()
}
