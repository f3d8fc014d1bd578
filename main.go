package main

import "github.com/lohith-badam/pishing-website-detection/cmd"

func main() {
	cmd.Execute()
}
