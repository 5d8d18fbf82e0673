package main

import "github.com/gigmarket/marketapi/cmd/marketapi/cmd"

func main() {
	cmd.Execute()
}
