package main

import "github.com/rustyeddy/tradedash/internal/cli"

func main() {
	cli.Execute()
}
