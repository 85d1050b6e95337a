package main

import (
	"github.com/mocsim/mocsim/cmd"
)

func main() {
	cmd.Execute()
}
