package main

import "github.com/jcdickinson/apiref/cmd"

func main() {
	cmd.Execute()
}
