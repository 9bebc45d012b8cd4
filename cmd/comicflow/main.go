package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	// An interrupted run has already printed where its state was written.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "comicflow: %v\n", err)
	}
	os.Exit(1)
}
