package fio

import (
	"bufio"
	"os"
	"strings"
)

// ReadClientFile parses a fio client list: one host per line, blank
// lines and #-comments skipped. A missing file surfaces as the os error
// so the caller can downgrade to a local run.
func ReadClientFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var clients []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		clients = append(clients, line)
	}
	return clients, sc.Err()
}
