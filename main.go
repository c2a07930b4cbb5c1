package main

import "github.com/pvolek/facegate/cmd"

func main() {
	cmd.Execute()
}
