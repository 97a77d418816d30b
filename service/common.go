package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

// Database path, set from the configuration before a command runs
var dbPath = "data/badger"

// Confirmation answers are read from here
var stdin io.Reader = os.Stdin

// backupDir sits next to the database directory
func backupDir() string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// openDB opens the badger database at path, routing badger's own logs
// through logrus.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(log.StandardLogger())
	return badger.Open(opts)
}

func dbExists() bool {
	_, err := os.Stat(dbPath)
	return err == nil
}

// confirm asks a yes/no question; anything but y or Y is a no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, _ := bufio.NewReader(stdin).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}
