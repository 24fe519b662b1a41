// Package main provides the keyboard plugin for macOS. It types the letters
// committed by the gesture engine through AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"unicode/utf8"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TypeParams carries the single character for the type action.
type TypeParams struct {
	Key string `json:"key"`
}

// macOS virtual key codes.
const (
	keyCodeSpace     = 49
	keyCodeBackspace = 51
)

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var err error
	switch req.Action {
	case "type":
		err = handleType(req.Params)
	case "space":
		err = runAppleScript(keyCodeScript(keyCodeSpace))
	case "backspace":
		err = runAppleScript(keyCodeScript(keyCodeBackspace))
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

func handleType(params json.RawMessage) error {
	var p TypeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if utf8.RuneCountInString(p.Key) != 1 {
		return fmt.Errorf("key must be a single character, got %q", p.Key)
	}
	r, _ := utf8.DecodeRuneInString(p.Key)
	if r < 'a' || r > 'z' {
		return fmt.Errorf("key %q is not a lower-case letter", p.Key)
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, p.Key))
}

func keyCodeScript(code int) string {
	return fmt.Sprintf(`tell application "System Events" to key code %d`, code)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
