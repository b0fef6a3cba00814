package main

import "mindbloom/cmd/bloom/root"

func main() {
	root.Execute()
}
