package main

import "github.com/OpenTraceLab/amoebot/cmd/amoebot/cmd"

func main() {
	cmd.Execute()
}
