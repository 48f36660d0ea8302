package main

import (
	"fmt"
	"os"

	"practicehub/internal/transport/http/api"
)

var Version = "dev"

func main() {
	api.UseNumericDecimals()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
