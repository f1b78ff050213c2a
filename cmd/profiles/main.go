// Command profiles manages profile records and their images.
package main

import "github.com/mesh-intelligence/profiles/internal/cli"

func main() {
	cli.Execute()
}
