package main

import (
	"fmt"
	"os"

	"github.com/astropaint/moonshine/internal/cli"
)

// Build metadata, overridden by ldflags at release time:
//
//	go build -ldflags "-X main.Version=... -X main.BuildTime=... -X main.GitCommit=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := cli.Execute(Version, BuildTime, GitCommit); err != nil {
		fmt.Fprintf(os.Stderr, "moonshine: %v\n", err)
		os.Exit(1)
	}
}
