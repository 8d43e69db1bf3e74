package main

import "checkazure/cmd"

func main() {
	cmd.Execute()
}
