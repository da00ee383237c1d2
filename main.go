package main

import "github.com/curaious/taskboard/cmd"

func main() {
	cmd.Execute()
}
