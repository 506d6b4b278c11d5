package main

import "github.com/KaramelBytes/aqireport/cmd"

func main() {
	cmd.Execute()
}
