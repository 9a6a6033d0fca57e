package main

import (
	"fmt"
	"os"

	"mallkisapan.io/garden/cmd"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {
	root := cmd.RootCommand(cmd.BuildInfo{Version: Version, BuildTime: BuildTime})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
