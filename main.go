package main

import "github.com/vibast-solutions/ms-go-posts/cmd"

func main() {
	cmd.Execute()
}
