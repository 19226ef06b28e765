// cmd/refmasker/main.go
package main

import (
	"refmasker/internal/app"
	"refmasker/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
