package main

import "github.com/tmmtools/modgrab/cmd"

func main() {
	cmd.Execute()
}
