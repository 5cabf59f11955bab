package main

import "github.com/datasightlabs/datasight-cli/cmd"

func main() {
	cmd.Execute()
}
