package main

import "github.com/uday-t-s/car-brand-sales/cmd"

func main() {
	cmd.Execute()
}
