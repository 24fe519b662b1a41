// Command handtype turns hand gestures into typed text.
package main

func main() {
	Execute()
}
