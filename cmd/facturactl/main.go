package main

import "facturaia/internal/cli"

func main() {
	cli.Execute()
}
