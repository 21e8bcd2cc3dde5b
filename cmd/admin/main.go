// Command admin is an operator tool for account maintenance. It connects
// directly to the database, so it must run where the DSN is reachable.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/config"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/repositories/repomanager"
	"github.com/dayli-app/api/internal/server/services"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func getSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// generatedPasswordBytes sizes the random password offered when the
// operator leaves the prompt blank (hex doubles it to 24 characters).
const generatedPasswordBytes = 12

func getPassword(w io.Writer) ([]byte, bool, error) {
	if _, err := fmt.Fprint(w, "Enter password (blank to generate): "); err != nil {
		return nil, false, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, false, err
	}
	if len(pw) > 0 {
		return pw, false, nil
	}

	generated, err := common.MakeRandHexString(generatedPasswordBytes)
	if err != nil {
		return nil, false, err
	}
	return []byte(generated), true, nil
}

func createAccount(ctx context.Context, accounts *services.AccountService) error {
	reader := bufio.NewReader(os.Stdin)

	email, err := getSimpleText(reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	pw, generated, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	account, err := accounts.Register(ctx, email, string(pw), models.KeyWrap{})
	if err != nil {
		return err
	}

	fmt.Printf("Created account %s (%s)\n", account.ID, account.Email)
	if generated {
		fmt.Printf("Generated password: %s\n", pw)
	}
	return nil
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	m, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		log.Fatalf("repository init error: %v", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	accounts := services.NewAccountService(db, m, cfg)

	if err := createAccount(ctx, accounts); err != nil {
		log.Fatalf("%v", err)
	}

}
