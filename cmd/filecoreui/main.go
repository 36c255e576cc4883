// Command filecoreui is the desktop GUI entrypoint, launching the Wails
// application shell defined in module/app.
package main

import (
	"log"

	"module/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
