package main

import "github.com/ValentinKolb/maxstore/cmd"

func main() {
	cmd.Execute()
}
