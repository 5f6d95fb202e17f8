package main

import "github.com/vitrio/glasses-match/cmd"

func main() {
	cmd.Execute()
}
