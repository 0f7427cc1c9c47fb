package main

import "github.com/ayusman/surfshell/internal/cli"

func main() {
	cli.Execute()
}
