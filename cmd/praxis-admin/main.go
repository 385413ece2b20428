package main

import "github.com/praxisgrc/praxis/cmd/cli"

func main() {
	cli.Execute()
}
