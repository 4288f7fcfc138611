package main

import (
	"github.com/cmuturi/resume-ranker/internal/gui"
)

func main() {
	app := gui.NewApp()
	app.Run()
}
