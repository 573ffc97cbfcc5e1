// Package bridge forwards lines from a remote terminal to a real shell
// interpreter running on this machine and streams the output back.
//
// It accepts loopback connections only. Nothing else about it is hardened.
package bridge

// Message types exchanged over the websocket.
const (
	// TypeLine carries one command line from the client.
	TypeLine = "line"
	// TypeOutput carries interpreter output.
	TypeOutput = "output"
	// TypePrompt asks the client to show Data as its prompt.
	TypePrompt = "prompt"
	// TypeExit reports that the interpreter exited with Code. The server
	// closes the connection after sending it.
	TypeExit = "exit"
)

// DefaultAddr is where the bridge listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:7681"

// Path is the websocket endpoint.
const Path = "/shell"

// Message is one websocket frame.
type Message struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Code int    `json:"code,omitempty"`
}

// URL returns the websocket URL of a bridge listening on addr.
func URL(addr string) string {
	return "ws://" + addr + Path
}
