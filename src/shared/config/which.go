package config

import (
	"fmt"
	"os/exec"
	"strings"
)

// FindBin resolves a binary on PATH and panics when it can't,
// it's only used while wiring up a process.
func FindBin(bin string) string {
	cmd := exec.Command("which", bin)
	output, err := cmd.CombinedOutput()

	stringOutput := string(output)
	if err != nil {
		panic(fmt.Sprintf("Failed to find %s: %s", bin, stringOutput))
	}

	trimmedOutput := strings.TrimSpace(stringOutput)
	if trimmedOutput == "" {
		panic(fmt.Sprintf("No bin found for %s", bin))
	}

	return trimmedOutput
}

// BinOrFind prefers an explicitly configured path over a PATH lookup.
func BinOrFind(configured string, bin string) string {
	if strings.TrimSpace(configured) != "" {
		return configured
	}

	return FindBin(bin)
}
