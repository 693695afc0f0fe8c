package main

import "github.com/bitArtisan1/capscript/cmd"

func main() {
	cmd.Execute()
}
