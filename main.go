package main

import "github.com/devinalvaro/conver/cmd"

func main() {
	cmd.Execute()
}
