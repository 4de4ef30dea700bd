package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		slog.Error("command failed", "command", root.Name(), "error", err)
		os.Exit(1)
	}
}

// printInitResult shows the first-run admin login. The password is not
// stored anywhere in clear text.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Created database %s\n\n", dbPath)
	fmt.Println("Admin login:")
	fmt.Printf("  user      %s\n", username)
	fmt.Printf("  password  %s\n\n", password)
	fmt.Println("The password is shown only once.")
}

// passwordAlphabet leaves out characters that are easy to misread on a
// printed receipt (0/O, 1/l/I).
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generatePassword returns groups of four random characters joined by dashes.
func generatePassword(groups int) (string, error) {
	parts := make([]string, groups)
	size := big.NewInt(int64(len(passwordAlphabet)))
	for g := range parts {
		var group [4]byte
		for i := range group {
			n, err := rand.Int(rand.Reader, size)
			if err != nil {
				return "", fmt.Errorf("reading random: %w", err)
			}
			group[i] = passwordAlphabet[n.Int64()]
		}
		parts[g] = string(group[:])
	}
	return strings.Join(parts, "-"), nil
}
