// Package iceconfig loads the ICE server list handed to browsers. The server
// never uses these servers itself; entries are passed through unmodified.
package iceconfig

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

var ErrInvalidServer = errors.New("invalid ICE server")

type fileConfig struct {
	ICEServers []serverEntry `toml:"ice_servers"`
}

type serverEntry struct {
	URLs       []string `toml:"urls"`
	Username   string   `toml:"username"`
	Credential string   `toml:"credential"`
}

// Default is used when no ICE config file is given.
func Default() []webrtc.ICEServer {
	return []webrtc.ICEServer{{URLs: []string{DefaultSTUN}}}
}

// Load reads a TOML file of [[ice_servers]] tables. An empty path yields Default.
func Load(path string) ([]webrtc.ICEServer, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ICE config: %w", err)
	}
	return Parse(string(content))
}

func Parse(content string) ([]webrtc.ICEServer, error) {
	var cfg fileConfig
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ICE config: %w", err)
	}

	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for i, e := range cfg.ICEServers {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("ice_servers[%d]: %w", i, err)
		}
		s := webrtc.ICEServer{URLs: e.URLs, Username: e.Username}
		if e.Credential != "" {
			s.Credential = e.Credential
		}
		servers = append(servers, s)
	}
	return servers, nil
}

func validate(e serverEntry) error {
	if len(e.URLs) == 0 {
		return fmt.Errorf("%w: no urls", ErrInvalidServer)
	}
	for _, raw := range e.URLs {
		uri, err := stun.ParseURI(raw)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidServer, raw, err)
		}
		relay := uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS
		if relay && (e.Username == "" || e.Credential == "") {
			return fmt.Errorf("%w: %q needs username and credential", ErrInvalidServer, raw)
		}
	}
	return nil
}
