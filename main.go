package main

import "github.com/ValentinKolb/cmdclient/cmd"

func main() {
	cmd.Execute()
}
