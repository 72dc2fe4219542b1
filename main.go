package main

import "retroriff/cmd"

func main() {
	cmd.Execute()
}
