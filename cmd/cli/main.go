package main

import (
	"github.com/mchmarny/radex/pkg/cli"
)

func main() {
	cli.Execute()
}
