package main

import (
	"os"

	"github.com/mateusmacedo/bus-reservation/internal/app"
)

func main() {
	os.Exit(app.Main(nil))
}
