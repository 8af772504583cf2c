package main

import "github.com/Coolhgg/relife-scheduler/cmd/scheduler-server/cmd"

func main() {
	cmd.Execute()
}
