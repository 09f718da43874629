package main

import (
	"os"

	"github.com/aidoc-labs/aidoc-go/internal/aidoccli"
	"github.com/aidoc-labs/aidoc-go/internal/logutil"
)

func main() {
	defer logutil.Sync()
	if err := aidoccli.Execute(); err != nil {
		os.Exit(1)
	}
}
