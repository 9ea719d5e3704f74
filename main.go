package main

import "github.com/wenzapen/page-loader/cmd"

func main() {
	cmd.Execute()
}
