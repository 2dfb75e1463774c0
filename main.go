/*
Copyright 2023 mpapenbr
*/

package main

import "github.com/mpapenbr/go-dashsim/cmd"

func main() {
	cmd.Execute()
}
