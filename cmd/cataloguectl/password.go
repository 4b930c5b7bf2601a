package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"odil-be/internal/auth"

	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash for OWNER_PASSWORD_HASH",
	Long: `Hash the owner password for the OWNER_PASSWORD_HASH setting. Without an
argument the password is read from the first line of stdin.

Examples:
  cataloguectl hash-password 's3cret'
  echo 's3cret' | cataloguectl hash-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password given")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
