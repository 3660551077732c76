package main

import "github.com/Justype/simmaker/cmd"

func main() {
	cmd.Execute()
}
