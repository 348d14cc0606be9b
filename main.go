package main

import (
	server "github.com/thereayou/telemed-lite/cmd/server"
)

func main() {
	server.NewServer().Run()
}
