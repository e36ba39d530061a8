package main

import "github.com/KaramelBytes/surveylens-cli/cmd"

func main() {
	cmd.Execute()
}
