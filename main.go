package main

import "github.com/ValentinKolb/synthd/cmd"

func main() {
	cmd.Execute()
}
