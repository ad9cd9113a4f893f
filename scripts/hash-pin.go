package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-pin.go <pin>\n")
		os.Exit(1)
	}

	pin := os.Args[1]
	if !util.IsValidPIN(pin) {
		fmt.Fprintf(os.Stderr, "Error: PIN must be %d to %d digits\n", util.MinPINLength, util.MaxPINLength)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
