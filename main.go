package main

import "github.com/paulobunga/parkman/cmd"

func main() {
	cmd.Execute()
}
