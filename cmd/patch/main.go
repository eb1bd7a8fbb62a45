// Command patch inspects patch files.
package main

import (
	_ "pipelined.dev/patch/builtin"
)

func main() {
	Execute()
}
