package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/config"
	"github.com/avolkov/lockbox/internal/logging"
	"github.com/avolkov/lockbox/internal/vault"
	"github.com/avolkov/lockbox/internal/vault/repositories/repomanager"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rm, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	v, err := vault.New(cfg, logger, rm)
	if err != nil {
		return err
	}
	defer func() { _ = v.Close() }()

	reader := bufio.NewReader(os.Stdin)

	username, err := readLine(reader, "Username: ")
	if err != nil {
		return err
	}

	password, err := readPassword("Master password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := v.SignIn(ctx, username, string(password))
	if errors.Is(err, common.ErrInvalidCredentials) {
		answer, rerr := readLine(reader, "Sign-in failed. Create this account? [y/N]: ")
		if rerr != nil {
			return rerr
		}
		if !strings.EqualFold(answer, "y") {
			return err
		}
		if err := v.Register(ctx, username, string(password)); err != nil {
			return err
		}
		token, err = v.SignIn(ctx, username, string(password))
	}
	if err != nil {
		return err
	}

	fmt.Printf("Session token (valid %s, shown once):\n%s\n", cfg.SessionTTL, token)
	return nil
}

func newRepositoryManager(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return repomanager.NewPostgres(ctx, cfg.DatabaseDSN)
	case "sqlite":
		return repomanager.NewSQLite(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.DatabaseDriver)
	}
}

func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return pw, nil
}
