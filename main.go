package main

import "github.com/okvlab/okv/cmd"

func main() {
	cmd.Execute()
}
