package main

import (
	"fmt"
	"os"
	"strings"

	"inkpress/service"

	log "github.com/sirupsen/logrus"
)

const CliVersion = "1.0.0"

// Replaced in tests
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line.
func RealMain() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("inkpress version %s\n", CliVersion)
	case "serve", "seed", "init", "clean", "backup", "restore":
		args := append([]string{cmd}, os.Args[2:]...)
		if code := service.HandleCommand(args); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: inkpress <command> [options]

Commands:
  help                                Display this help message.
  version                             Show version information.
  serve   [--config f] [--env f]      Run the blog server.
  seed    [--config f] <file.json>    Load authors, posts and comments into the embedded store.
  init    [--config f]                Initialize a new empty embedded store.
  clean   [--config f]                Delete the embedded store.
  backup  [--config f]                Create a backup of the embedded store.
  restore [--config f] <file>         Restore the embedded store from a backup.

Configuration is read from the TOML file given with --config, then from
the .env file given with --env (default .env), then from the environment.
`
	fmt.Println(helpText)
}
