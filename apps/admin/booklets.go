package main

import (
	"context"
	"fmt"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/storage/database/sqlx"
)

func newBookletService(exec core.DBExecutor) *booklet.Service {
	return booklet.NewService(sqlxrepos.NewBookletRepository(exec), sqlxrepos.NewRosterRepository(exec))
}

// seed upserts the demo roster and provisions its booklets in a single transaction.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	return sqlxrepos.InTx(ctx, cli.db, func(exec core.DBExecutor) error {
		class, err := roster.DemoSeed().Apply(ctx, sqlxrepos.NewRosterRepository(exec))
		if err != nil {
			return err
		}
		report, err := newBookletService(exec).Provision(ctx, class.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "seeded class %s (%d %s)\n", class.ID, class.Year, class.ClassCode)
		cli.printReport(report)
		return nil
	})
}

func (cli *commandLine) provision(classID string) error {
	ctx := context.Background()
	return sqlxrepos.InTx(ctx, cli.db, func(exec core.DBExecutor) error {
		report, err := newBookletService(exec).Provision(ctx, classID)
		if err != nil {
			return err
		}
		cli.printReport(report)
		for _, code := range report.Codes {
			fmt.Fprintln(cli.out, code)
		}
		return nil
	})
}

func (cli *commandLine) printReport(r booklet.ProvisionReport) {
	fmt.Fprintf(cli.out, "booklets: %d created, %d updated, %d unchanged, %d skipped\n",
		r.Created, r.Updated, r.Unchanged, r.Skipped)
}
