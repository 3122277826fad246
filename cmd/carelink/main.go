package main

import "github.com/sunwoojg/carelink/cmd/carelink/cmd"

func main() {
	cmd.Execute()
}
