package main

import (
	"github.com/go-confine/confine"
	"github.com/go-confine/confine/cmd/confine/cmd"
)

func main() {
	confine.Init()
	cmd.Execute()
}
