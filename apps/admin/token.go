package main

import (
	"fmt"
	"time"

	echoapi "github.com/trezcool/workbook/apps/api/echo"
)

// token prints a signed API token, for local use.
func (cli *commandLine) token(subject string, isAdmin bool, classIDs []string, ttl time.Duration) error {
	token, err := echoapi.GenerateToken(echoapi.NewClaims(subject, isAdmin, classIDs, ttl), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
