package main

import "fixly_backend/internal/app"

func main() {
	app.Run()
}
