package main

import "github.com/famledger/famspend/cmd"

func main() {
	cmd.Execute()
}
