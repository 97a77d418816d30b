package service

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inkpress/app/config"
	"inkpress/app/repositories"

	log "github.com/sirupsen/logrus"
)

// HandleCommand runs a store or server subcommand and returns an exit code.
// Flags come before positional arguments, e.g. "restore --config app.toml backup.bak".
func HandleCommand(args []string) int {
	if len(args) < 1 {
		fmt.Println("Error: command required")
		return 1
	}

	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to TOML config file")
	envPath := fs.String("env", ".env", "Path to .env file")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	rest := fs.Args()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return 1
	}
	log.SetLevel(cfg.Level())
	dbPath = cfg.BadgerPath

	switch cmd {
	case "serve":
		return RunAppServer(cfg)
	case "clean":
		return clean()
	case "init":
		return initDb()
	case "backup":
		return backup()
	case "restore":
		if len(rest) < 1 {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(rest[0])
	case "seed":
		if len(rest) < 1 {
			fmt.Println("Error: seed file path required for seed")
			return 1
		}
		return seed(rest[0])
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		return 1
	}
}

// clean removes the database.
func clean() int {
	if !dbExists() {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}
	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// initDb initializes a new empty database.
func initDb() int {
	if dbExists() {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 1
	}
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := openDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer db.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// seed loads authors, posts and comments from a JSON file into the database,
// creating it if needed.
func seed(seedFile string) int {
	raw, err := os.ReadFile(seedFile)
	if err != nil {
		fmt.Printf("Failed to read seed file: %v\n", err)
		return 1
	}

	var data repositories.SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		fmt.Printf("Invalid seed file %s: %v\n", seedFile, err)
		return 1
	}

	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}
	db, err := openDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := repositories.NewBadgerContentStore(db).Seed(&data); err != nil {
		fmt.Printf("Failed to seed database: %v\n", err)
		return 1
	}

	fmt.Printf("Seeded %d authors, %d posts and %d comments\n", len(data.Authors), len(data.Posts), len(data.Comments))
	return 0
}

// backup writes a full backup of the database to the backup directory.
func backup() int {
	if !dbExists() {
		fmt.Println("No database exists to backup")
		return 1
	}
	if err := os.MkdirAll(backupDir(), 0o755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	db, err := openDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	backupFile := filepath.Join(backupDir(), fmt.Sprintf("backup_%s.bak", time.Now().UTC().Format("20060102T150405.000000000")))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore replaces the database with the contents of a backup file.
func restore(backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if dbExists() {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}
	db, err := openDB(dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := db.Load(f, 4); err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}
