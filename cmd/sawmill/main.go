package main

import "github.com/hejijunhao/sawmill/internal/cmd"

func main() {
	cmd.Execute()
}
