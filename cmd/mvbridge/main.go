package main

import (
	"github.com/motionview/mvbridge/internal/cli"
	"github.com/motionview/mvbridge/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
