package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/inkpress"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			log.Fatalf("inkpress: %v", err)
		}
	case "adduser":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: inkpress adduser <username> [admin|author]")
			os.Exit(1)
		}
		role := ""
		if len(os.Args) > 3 {
			role = os.Args[3]
		}
		if err := runAddUser(os.Args[2], role); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "new":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: inkpress new <project-name>")
			os.Exit(1)
		}
		if err := runNew(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("inkpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg := inkpress.SiteConfig{
		Name:                  inkpress.EnvOr("SITE_NAME", "Inkpress"),
		URL:                   inkpress.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:           os.Getenv("SITE_DESCRIPTION"),
		Author:                os.Getenv("SITE_AUTHOR"),
		Addr:                  inkpress.EnvOr("HTTP_ADDR", ":3000"),
		DatabasePath:          inkpress.EnvOr("DATABASE_PATH", "data/inkpress.db"),
		AnalyticsEnabled:      inkpress.EnvOr("ANALYTICS_ENABLED", "true") == "true",
		AnalyticsDatabasePath: inkpress.EnvOr("ANALYTICS_DB_PATH", "data/analytics.db"),
		SessionSecret:         inkpress.MustEnv("SESSION_SECRET"),
		CookieSecure:          strings.HasPrefix(os.Getenv("SITE_URL"), "https://"),
		UploadsDir:            inkpress.EnvOr("UPLOADS_DIR", "public/uploads"),
		ClassifierAPIURL:      os.Getenv("CLASSIFIER_API_URL"),
		ClassifierAPIKey:      os.Getenv("CLASSIFIER_API_KEY"),
	}
	if days, err := strconv.Atoi(os.Getenv("ANALYTICS_RETENTION_DAYS")); err == nil && days > 0 {
		cfg.AnalyticsRetentionDays = days
	}

	app := inkpress.New(cfg)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	}
}

func runAddUser(username, role string) error {
	fmt.Printf("Password for %s: ", username)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	store, err := inkpress.NewStore(inkpress.EnvOr("DATABASE_PATH", "data/inkpress.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	// The first account becomes the admin so a fresh install is manageable.
	if role == "" {
		count, err := store.CountUsers()
		if err != nil {
			return err
		}
		if count == 0 {
			role = inkpress.RoleAdmin
		}
	}

	user, err := store.CreateUser(username, string(hash), role)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s account %q\n", user.Role, user.Username)
	return nil
}

func printUsage() {
	fmt.Println(`inkpress - a publishing engine with interactive post widgets

Usage:
  inkpress <command> [arguments]

Commands:
  serve             Run the web server
  adduser <name>    Create an author account (first account becomes admin)
  new <name>        Create a new inkpress site project
  version           Print the inkpress version
  help              Show this help message

Examples:
  inkpress new mysite
  inkpress adduser alice
  SESSION_SECRET=... inkpress serve`)
}
