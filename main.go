package main

import "github.com/iksnae/duckchat/cmd"

func main() {
	cmd.Execute()
}
