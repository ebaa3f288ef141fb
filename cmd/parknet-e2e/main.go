package main

import "github.com/hextract/parking-net/internal/cli"

func main() {
	cli.Execute()
}
