package main

import "github.com/nlcmd/nlcmd/internal/cli"

func main() {
	cli.Execute()
}
