// Package inmemdb is the "memory" storage engine: repositories backed by mutex-guarded maps.
// Unique keys are enforced under the tables' write locks, like the SQL engines' unique indexes.
package inmemdb

import (
	"sync"

	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/submission"
)

type (
	DB struct {
		roster     *rosterTables
		booklet    *bookletTable
		submission *submissionTable
	}

	rosterTables struct {
		sync.RWMutex
		classes   map[string]*roster.Class
		students  map[string]*roster.Student
		materials map[string]*roster.Material
	}

	bookletTable struct {
		sync.RWMutex
		table map[string]*booklet.Booklet
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}
)

func Open() *DB {
	return &DB{
		roster: &rosterTables{
			classes:   make(map[string]*roster.Class),
			students:  make(map[string]*roster.Student),
			materials: make(map[string]*roster.Material),
		},
		booklet:    &bookletTable{table: make(map[string]*booklet.Booklet)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
	}
}
