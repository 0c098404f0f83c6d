package moderation

import (
	"bufio"
	"os"
	"strings"
)

// LoadWordFile reads a censored word list, one word per line. Blank lines
// and '#' comments are skipped. An empty path means moderation is
// disabled and returns no words.
func LoadWordFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return words, scanner.Err()
}
