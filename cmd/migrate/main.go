package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/infrastructure/config"
	"github.com/paypos/backend/internal/infrastructure/logger"
	"github.com/paypos/backend/internal/infrastructure/migration"
)

// command is one migrate subcommand. Commands with a nil run need no database.
type command struct {
	usage   string
	minArgs int
	offline func(env *env, args []string) error
	run     func(env *env, m *migration.Migrator, args []string) error
}

type env struct {
	log            *zap.Logger
	migrationsPath string
}

var commands = map[string]command{
	"up": {
		usage: "up",
		run: func(_ *env, m *migration.Migrator, _ []string) error {
			return m.Up()
		},
	},
	"down": {
		usage: "down",
		run: func(_ *env, m *migration.Migrator, _ []string) error {
			return m.Down()
		},
	},
	"step": {
		usage:   "step <n>",
		minArgs: 1,
		run: func(_ *env, m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		},
	},
	"goto": {
		usage:   "goto <version>",
		minArgs: 1,
		run: func(_ *env, m *migration.Migrator, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(version))
		},
	},
	"force": {
		usage:   "force <version>",
		minArgs: 1,
		run: func(_ *env, m *migration.Migrator, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(version)
		},
	},
	"status": {
		usage: "status",
		run:   printStatus,
	},
	"create": {
		usage:   "create <name> [description]",
		minArgs: 1,
		offline: func(e *env, args []string) error {
			dir := e.migrationsPath
			if dir == "" {
				dir = "migrations"
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			e.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		usage: "list",
		offline: func(e *env, _ []string) error {
			infos, err := migration.ListMigrations(e.source())
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Println("  -", info.BaseName())
			}
			e.log.Info("Available migrations", zap.Int("count", len(infos)))
			return nil
		},
	},
}

func (e *env) source() fs.FS {
	if e.migrationsPath == "" {
		return migration.EmbeddedMigrations()
	}
	return os.DirFS(e.migrationsPath)
}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: migrations embedded in the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	if len(args)-1 < cmd.minArgs {
		fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if migrationsPath != "" {
		if migrationsPath, err = filepath.Abs(migrationsPath); err != nil {
			log.Fatal("Invalid migrations path", zap.Error(err))
		}
	}
	e := &env{log: log, migrationsPath: migrationsPath}

	if cmd.offline != nil {
		if err := cmd.offline(e, args[1:]); err != nil {
			log.Fatal("Command failed", zap.String("command", args[0]), zap.Error(err))
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	// The migrator owns db from here on and closes it.
	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		_ = db.Close()
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	runErr := cmd.run(e, m, args[1:])
	if err := m.Close(); err != nil {
		log.Warn("Failed to close migrator", zap.Error(err))
	}
	if runErr != nil {
		log.Fatal("Command failed", zap.String("command", args[0]), zap.Error(runErr))
	}
}

// printStatus lists every known migration with whether the database has it applied
func printStatus(e *env, m *migration.Migrator, _ []string) error {
	status, err := m.Status()
	if err != nil {
		return err
	}
	infos, err := migration.ListMigrations(e.source())
	if err != nil {
		return err
	}

	for _, info := range infos {
		version, err := strconv.ParseUint(info.Version, 10, 64)
		if err != nil {
			return fmt.Errorf("migration %s: invalid version: %w", info.BaseName(), err)
		}
		mark := " "
		if status.Applied && uint(version) <= status.Version {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, info.BaseName())
	}

	if !status.Applied {
		e.log.Info("No migrations applied")
		return nil
	}
	e.log.Info("Current migration version",
		zap.Uint("version", status.Version),
		zap.Bool("dirty", status.Dirty),
	)
	return nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `POS inventory sync schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                          Apply all pending migrations
  down                        Roll back all migrations
  step <n>                    Apply n migrations (negative rolls back)
  goto <version>              Migrate to a specific version
  force <version>             Set the version without migrating (repairs a dirty schema)
  status                      Show applied and pending migrations
  create <name> [description] Create an up/down file pair
  list                        List available migrations

Flags:
  -path string        Migrations directory (default: embedded migrations)
  -log-level string   debug, info, warn or error (default: info)

The database is configured like the server: config.toml or POS_DATABASE_* variables.
`)
}
