package main

import "github.com/slurmkit/slaunch/cmd"

func main() {
	cmd.Execute()
}
