package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"

	"github.com/trezcool/workbook/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sqlx.DB
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                              - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  seed                                                - seed the demo class and its booklets")
	fmt.Fprintln(cli.out, "  provision --class ID                                - create the missing booklets of a class")
	fmt.Fprintln(cli.out, "  payload --year Y --class CODE --number N --material CODE - print a booklet QR payload")
	fmt.Fprintln(cli.out, "  token --subject SUB [--admin] [--class ID]... [--ttl D] - mint an API token")
}

// newFlagSet returns a FlagSet whose usage is written to the CLI output.
func (cli *commandLine) newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(cli.out)
	fs.Usage = func() {
		fmt.Fprintf(cli.out, "Usage: %s\n", usage)
		fmt.Fprint(cli.out, fs.FlagUsages())
	}
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	provisionCmd := cli.newFlagSet("provision", "provision --class ID")
	provisionClass := provisionCmd.String("class", "", "The class ID.")

	payloadCmd := cli.newFlagSet("payload", "payload --year Y --class CODE --number N --material CODE")
	payloadYear := payloadCmd.Int("year", 0, "The school year (e.g. 2026).")
	payloadClass := payloadCmd.String("class", "", "The class code (e.g. 3A).")
	payloadNumber := payloadCmd.Int("number", 0, "The student number.")
	payloadMaterial := payloadCmd.String("material", "", "The material code (e.g. KANJI).")

	tokenCmd := cli.newFlagSet("token", "token --subject SUB [--admin] [--class ID]... [--ttl D]")
	tokenSubject := tokenCmd.String("subject", "", "The teacher's account ID.")
	tokenAdmin := tokenCmd.Bool("admin", false, "Grant access to every class and to admin endpoints.")
	tokenClasses := tokenCmd.StringSlice("class", nil, "IDs of the classes the teacher can access.")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "The token lifetime.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "provision":
		if err := provisionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *provisionClass == "" {
			provisionCmd.Usage()
			return errHelp
		}
		return cli.provision(*provisionClass)
	case "payload":
		if err := payloadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *payloadClass == "" || *payloadMaterial == "" {
			payloadCmd.Usage()
			return errHelp
		}
		return cli.payload(*payloadYear, *payloadClass, *payloadNumber, *payloadMaterial)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenSubject, *tokenAdmin, *tokenClasses, *tokenTTL)
	default:
		cli.printUsage()
		return errHelp
	}
}
