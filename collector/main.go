package main

import "github.com/derktes/rf-signal-collector/collector/collector"

func main() {
	collector.Start()
}
