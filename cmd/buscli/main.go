package main

//go-build: CGO_ENABLED=0

import (
	"github.com/daqlink/sensorbus.go/pkg/cli/sh"
)

func main() {
	sh.Main()
}
