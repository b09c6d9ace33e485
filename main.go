package main

import "xnbconv/cmd"

func main() {
	cmd.Execute()
}
