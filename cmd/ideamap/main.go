package main

import "ideamap/interfaces/cli"

func main() {
	cli.Execute()
}
