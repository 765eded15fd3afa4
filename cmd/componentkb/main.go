// Command componentkb runs the component knowledge base server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	root "github.com/nexuslabs-ai/context-engine-sub000/cmd/root"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.Execute(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
