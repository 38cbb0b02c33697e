package main

import "catclone/internal/cli"

func main() {
	cli.Execute()
}
