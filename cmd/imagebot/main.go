package main

// Build is set via ldflags at build time
var Build = "unknown"

func main() {
	Execute()
}
