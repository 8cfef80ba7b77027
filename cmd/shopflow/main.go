// Command shopflow runs the storefront UI regression suite.
package main

import "github.com/devicelab-dev/shopflow/pkg/cli"

func main() {
	cli.Execute()
}
