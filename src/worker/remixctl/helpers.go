package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
)

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "stem-remixer")
}

// commandArgs renders "<stem> <gainDb> <title>". The gain is always written
// out so a title starting with a number isn't read as the gain.
func commandArgs(stemName string, gain string, title string) string {
	if strings.TrimSpace(gain) == "" {
		gain = strconv.FormatFloat(request.DefaultGainDB, 'g', -1, 64)
	}

	return strings.Join([]string{stemName, gain, title}, " ")
}

func notANumberMessage(gain string) string {
	return fmt.Sprintf("Gain '%s' is not a number", gain)
}

func looksLikeGain(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
