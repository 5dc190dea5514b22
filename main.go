package main

import "github.com/iksnae/attendance/cmd"

func main() {
	cmd.Execute()
}
