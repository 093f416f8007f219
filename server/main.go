package main

import "github.com/derktes/rf-signal-collector/server/server"

func main() {
	server.Start()
}
