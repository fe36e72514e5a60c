package main

import (
	"go.uber.org/fx"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
