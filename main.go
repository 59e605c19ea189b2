package main

import "github.com/scriptisto/scriptisto/cmd"

func main() {
	cmd.Execute()
}
