// Command secret-hash prints a bcrypt hash of the given admin secret,
// suitable for ADMIN_SECRET_HASH.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shardchat/shardchat/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <secret>\n", os.Args[0])
		os.Exit(2)
	}

	hash, err := auth.HashSecret(os.Args[1])
	if err != nil {
		log.Fatalf("hash secret: %v", err)
	}
	fmt.Println(hash)
}
