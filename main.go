package main

import (
	"github.com/coursecast/coursecast/cmd"
)

func main() {
	cmd.Execute()
}
