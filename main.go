package main

import "github.com/GFRDINDIA/Helper/cmd"

func main() {
	cmd.Execute()
}
