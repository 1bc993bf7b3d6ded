package main

import "kmllinks/cmd"

func main() {
	cmd.Execute()
}
