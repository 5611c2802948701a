package main

import "github.com/Laisky/laisky-cms/cmd"

func main() {
	cmd.Execute()
}
