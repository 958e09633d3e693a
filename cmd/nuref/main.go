package main

import "nuref/cmd/nuref/cmd"

func main() {
	cmd.Execute()
}
