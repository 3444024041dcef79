package main

import "mincadmin/cmd/client/cmd"

func main() {
	cmd.Execute()
}
