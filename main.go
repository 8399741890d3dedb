package main

import (
	"musiclip/cmd"
)

func main() {
	cmd.Execute()
}
