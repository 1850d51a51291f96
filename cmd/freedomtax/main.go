package main

import "github.com/gallaway-jp/freedomtax/cmd/freedomtax/cmd"

func main() {
	cmd.Execute()
}
