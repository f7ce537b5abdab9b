package main

import "github.com/KaramelBytes/npsmentor-cli/cmd"

func main() {
	cmd.Execute()
}
