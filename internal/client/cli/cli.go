// Package cli implements the offlinedesk client commands on top of the
// app handle.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/offlinedesk/internal/client/app"
	"github.com/iudanet/offlinedesk/internal/client/iocli"
	"github.com/iudanet/offlinedesk/internal/validation"
	pkgapi "github.com/iudanet/offlinedesk/pkg/api"
)

// PasswordEnv переменная окружения с паролем для неинтерактивного входа
const PasswordEnv = "OFFLINEDESK_PASSWORD"

// Passwords holds the non-interactive password sources.
type Passwords struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	app       *app.App
	io        iocli.IO
	passwords Passwords
}

func New(a *app.App, io iocli.IO, passwords Passwords) *Cli {
	return &Cli{
		app:       a,
		io:        io,
		passwords: passwords,
	}
}

// getPassword retrieves the account password with priority:
// 1. Environment variable OFFLINEDESK_PASSWORD
// 2. File given by --password-file
// 3. Command-line parameter --password
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(prompt string) (string, error) {
	if envPassword := lookupEnv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// checkURL accepts "/api/<resource>" and "/api/<resource>/<id>"
func checkURL(url string) error {
	if !strings.HasPrefix(url, "/api/") {
		return fmt.Errorf("url must start with /api/: %q", url)
	}
	path := pkgapi.ResourcePath(url)
	if err := validation.ValidateResource(path); err == nil {
		return nil
	}
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return validation.ValidateResource(path)
	}
	if err := validation.ValidateResource(path[:i]); err != nil {
		return err
	}
	return validation.ValidateRecordID(path[i+1:])
}

// errUsage сигнализирует о неверных аргументах команды
var errUsage = errors.New("invalid arguments")

func usageError(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, a...))
}

// IsUsageError reports whether err came from bad command arguments.
func IsUsageError(err error) bool {
	return errors.Is(err, errUsage)
}

func PrintUsage(io iocli.IO) {
	io.Println("offlinedesk client")
	io.Println()
	io.Println("Usage:")
	io.Println("  offlinedesk [OPTIONS] COMMAND [ARGS]")
	io.Println()
	io.Println("Options:")
	io.Println("  --version               Show version information")
	io.Println("  --config PATH           YAML config file")
	io.Println("  --server URL            Server URL (default: http://localhost:8080)")
	io.Println("  --db PATH               Path to local database (default: offlinedesk-client.db)")
	io.Println("  --offline               Treat the server as unreachable")
	io.Println("  --password PASSWORD     Account password (not recommended, use env var or file)")
	io.Println("  --password-file PATH    Path to file containing the account password")
	io.Println()
	io.Println("Commands:")
	io.Println("  register [role]                 Register new user (member, manager, admin)")
	io.Println("  login                           Login and store the access token")
	io.Println("  logout                          Delete the token and all cached data")
	io.Println("  status                          Show session, queue and connectivity")
	io.Println("  fetch [--table T] <url>         Read a resource cache-first")
	io.Println("  mutate [flags] <METHOD> <url> [json]")
	io.Println("                                  Write directly or queue when offline")
	io.Println("  queue [list|failed|clear-synced|clear]")
	io.Println("                                  Inspect or clean the offline queue")
	io.Println("  sync                            Drain the offline queue once")
	io.Println("  watch                           Drain on a timer and on wake signals")
	io.Println("  clear [table]                   Clear one cached table or everything")
	io.Println("  usage                           Show local storage usage")
	io.Println()
	io.Println("Examples:")
	io.Println("  offlinedesk login")
	io.Println("  offlinedesk fetch /api/todos")
	io.Println(`  offlinedesk mutate POST /api/todos '{"title":"Buy milk"}'`)
	io.Println("  offlinedesk mutate --id t1 PATCH /api/todos/t1 '{\"status\":\"done\"}'")
	io.Println("  offlinedesk --offline mutate DELETE /api/todos/t1")
	io.Println("  offlinedesk queue failed")
}
