// Command hashpass prints the bcrypt hash to use as CLUBSITE_ADMIN_PASSWORD_HASH.
//
//	echo -n 'secret' | hashpass
//	hashpass secret
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ironpulse/clubsite/internal/services"
)

func main() {
	password, err := readPassword(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(2)
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}
