package main

import "scenetune/cmd"

func main() {
	cmd.Execute()
}
