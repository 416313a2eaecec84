package main

import "github.com/nestjs/nestdoc/cmd"

func main() {
	cmd.Execute()
}
