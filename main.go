package main

import "pgstay/commands"

func main() {
	commands.Execute()
}
