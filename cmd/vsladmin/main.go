// vsladmin shows the VSL platform admin dashboard in a terminal or a browser.
//
// Usage:
//
//	vsladmin login --username admin
//	vsladmin dashboard
//	vsladmin dashboard --output json
//	vsladmin serve --listen 127.0.0.1:3000
//	vsladmin doctor
package main

import (
	"fmt"
	"os"

	"github.com/vslplatform/vsladmin/cmd/vsladmin/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
