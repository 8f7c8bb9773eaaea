package main

import (
	"fmt"

	"github.com/alpadrive/server/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
