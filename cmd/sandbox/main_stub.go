//go:build !ebiten

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "The GUI build of mad-liquid requires the ebiten build tag.")
	fmt.Fprintln(os.Stderr, "Re-run with `go run -tags ebiten ./cmd/sandbox` or build with `-tags ebiten`.")
	fmt.Fprintln(os.Stderr, "Headless runs, sweeps and the websocket server live in ./cmd/liquidctl.")
	os.Exit(2)
}
