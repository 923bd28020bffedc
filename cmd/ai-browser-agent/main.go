package main

import (
	"github.com/Chashkapluy1/ai-browser-agent/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}
