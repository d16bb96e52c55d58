package main

import (
	"github.com/praetorian-inc/rolecall/cmd"
)

func main() {
	cmd.Execute()
}
