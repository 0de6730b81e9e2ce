package main

import "fmp-archiver/internal/cli"

func main() {
	cli.Execute()
}
