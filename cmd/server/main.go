package main

import _ "github.com/YuarenArt/peerjam/docs"

// @title           PeerJam API
// @version         1.0.0
// @description     Room-scoped WebRTC signaling relay with WebSocket and REST
// @BasePath        /
// @host            localhost:8080
func main() {
	Execute()
}
