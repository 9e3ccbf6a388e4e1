package main

import "github.com/quijoterun/tracker/internal/cli"

func main() {
	cli.Execute()
}
