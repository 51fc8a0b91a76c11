package main

import (
	"github.com/topplegame/topple/internal/cli"
)

func main() {
	cli.Execute()
}
