package main

import (
	"github.com/MeKo-Tech/omrscore/cmd/omr/cmd"
)

func main() {
	cmd.Execute()
}
