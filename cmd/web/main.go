package main

import "saas_backend/internal/app"

func main() {
	app.Execute()
}
