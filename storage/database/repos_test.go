package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/submission"
	"github.com/trezcool/workbook/testutil"
)

func TestRosterRepository(t *testing.T) {
	for _, engine := range testutil.Engines {
		t.Run(engine.Name, func(t *testing.T) {
			ctx := context.Background()
			repo := engine.Repos(t).Roster

			class := testutil.SeedDemo(t, repo)
			again := testutil.SeedDemo(t, repo)
			assert.Equal(t, class.ID, again.ID, "seeding is idempotent")

			got, err := repo.GetClass(ctx, class.ID)
			require.NoError(t, err)
			assert.Equal(t, roster.Class{ID: class.ID, Year: 2026, ClassCode: "3A", Name: "3年A組"}, got)

			students, err := repo.QueryStudents(ctx, class.ID)
			require.NoError(t, err)
			require.Len(t, students, 20)
			for i, st := range students {
				assert.Equal(t, i+1, st.Number)
			}

			st, err := repo.FindStudent(ctx, class.ID, 7)
			require.NoError(t, err)
			assert.Equal(t, "生徒07", st.DisplayName)

			self, err := repo.FindMaterial(ctx, "SELF")
			require.NoError(t, err)
			assert.True(t, self.IsSelfStudy())

			self.IsActive = false
			_, err = repo.SaveMaterial(ctx, self)
			require.NoError(t, err)
			active, err := repo.QueryMaterials(ctx, true)
			require.NoError(t, err)
			codes := make([]string, 0, len(active))
			for _, m := range active {
				codes = append(codes, m.Code)
			}
			assert.Equal(t, []string{"KANJI", "KEISAN", "ONDOKU"}, codes)
			all, err := repo.QueryMaterials(ctx, false)
			require.NoError(t, err)
			assert.Len(t, all, 4)

			_, err = repo.GetClass(ctx, "not-a-uuid")
			assert.True(t, errors.Is(err, roster.ErrClassNotFound))
			_, err = repo.FindClass(ctx, 2026, "9Z")
			assert.True(t, errors.Is(err, roster.ErrClassNotFound))
			_, err = repo.FindStudent(ctx, class.ID, 99)
			assert.True(t, errors.Is(err, roster.ErrStudentNotFound))
			_, err = repo.FindMaterial(ctx, "NOPE")
			assert.True(t, errors.Is(err, roster.ErrMaterialNotFound))
			_, err = repo.SaveStudent(ctx, roster.Student{ClassID: "00000000-0000-0000-0000-000000000000", Number: 1})
			assert.True(t, errors.Is(err, roster.ErrClassNotFound))
		})
	}
}

func TestBookletRepository(t *testing.T) {
	for _, engine := range testutil.Engines {
		t.Run(engine.Name, func(t *testing.T) {
			ctx := context.Background()
			repos := engine.Repos(t)
			class := testutil.SeedDemo(t, repos.Roster)
			st1 := testutil.Student(t, repos.Roster, class.ID, 1)
			st2 := testutil.Student(t, repos.Roster, class.ID, 2)
			kanji := testutil.Material(t, repos.Roster, "KANJI")
			now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

			b, err := repos.Booklets.CreateBooklet(ctx, booklet.Booklet{
				StudentID: st1.ID, MaterialID: kanji.ID, Payload: "T4|BM|2026|3A|001|KANJI", CreatedAt: now, UpdatedAt: now,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, b.ID)

			tests := []struct {
				name string
				b    booklet.Booklet
			}{
				{name: "payload taken", b: booklet.Booklet{StudentID: st2.ID, MaterialID: kanji.ID, Payload: b.Payload}},
				{name: "pair taken", b: booklet.Booklet{StudentID: st1.ID, MaterialID: kanji.ID, Payload: "T4|BM|2026|3A|001|OTHER"}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					tt.b.CreatedAt, tt.b.UpdatedAt = now, now
					_, err := repos.Booklets.CreateBooklet(ctx, tt.b)
					if !errors.Is(err, booklet.ErrConflict) {
						t.Errorf("CreateBooklet() error = %v, wantErr %v", err, booklet.ErrConflict)
					}
				})
			}

			got, err := repos.Booklets.GetBookletByPayload(ctx, b.Payload)
			require.NoError(t, err)
			assert.Equal(t, b.ID, got.ID)
			assert.True(t, now.Equal(got.CreatedAt))

			got, err = repos.Booklets.GetBookletByPair(ctx, st1.ID, kanji.ID)
			require.NoError(t, err)
			assert.Equal(t, b.ID, got.ID)

			_, err = repos.Booklets.GetBooklet(ctx, "lol")
			assert.True(t, errors.Is(err, booklet.ErrNotFound))
			_, err = repos.Booklets.GetBookletByPayload(ctx, "T4|BM|2026|3A|002|KANJI")
			assert.True(t, errors.Is(err, booklet.ErrNotFound))

			other, err := repos.Booklets.CreateBooklet(ctx, booklet.Booklet{
				StudentID: st2.ID, MaterialID: kanji.ID, Payload: "T4|BM|2026|3A|002|KANJI", CreatedAt: now, UpdatedAt: now,
			})
			require.NoError(t, err)

			later := now.Add(time.Hour)
			updated, err := repos.Booklets.UpdateBookletPayload(ctx, b.ID, "T4|BM|2026|3A|01|KANJI", later)
			require.NoError(t, err)
			assert.Equal(t, "T4|BM|2026|3A|01|KANJI", updated.Payload)
			assert.True(t, later.Equal(updated.UpdatedAt))

			_, err = repos.Booklets.UpdateBookletPayload(ctx, b.ID, other.Payload, later)
			assert.True(t, errors.Is(err, booklet.ErrConflict))
			_, err = repos.Booklets.UpdateBookletPayload(ctx, "00000000-0000-0000-0000-000000000000", "x", later)
			assert.True(t, errors.Is(err, booklet.ErrNotFound))
		})
	}
}

func TestSubmissionRepository(t *testing.T) {
	for _, engine := range testutil.Engines {
		t.Run(engine.Name, func(t *testing.T) {
			ctx := context.Background()
			repos := engine.Repos(t)
			class := testutil.SeedDemo(t, repos.Roster)
			st1 := testutil.Student(t, repos.Roster, class.ID, 1)
			st2 := testutil.Student(t, repos.Roster, class.ID, 2)
			kanji := testutil.Material(t, repos.Roster, "KANJI")
			self := testutil.Material(t, repos.Roster, "SELF")

			newBooklet := func(st roster.Student, m roster.Material) booklet.Booklet {
				b, err := repos.Booklets.CreateBooklet(ctx, booklet.Booklet{
					StudentID: st.ID, MaterialID: m.ID, Payload: st.ID + "|" + m.Code,
				})
				require.NoError(t, err)
				return b
			}
			b1 := newBooklet(st1, kanji)
			b1Self := newBooklet(st1, self)
			b2 := newBooklet(st2, kanji)

			submit := func(b booklet.Booklet, date string, at time.Time, pages *int) (submission.Submission, error) {
				return repos.Submissions.CreateSubmission(ctx, submission.Submission{
					BookletID:     b.ID,
					StudentID:     b.StudentID,
					MaterialID:    b.MaterialID,
					ClassID:       class.ID,
					SchoolDate:    testutil.Date(t, date),
					Timestamp:     at.UTC(),
					PointsAwarded: 1,
					PagesDone:     pages,
				})
			}

			tue := testutil.At(2026, time.March, 10, 9, 0)
			s1, err := submit(b1, "2026-03-10", tue, nil)
			require.NoError(t, err)
			_, err = submit(b1, "2026-03-10", tue.Add(time.Hour), nil)
			assert.True(t, errors.Is(err, submission.ErrAlreadySubmitted), "one active submission per booklet and day")

			wed := testutil.At(2026, time.March, 11, 8, 30)
			_, err = submit(b1, "2026-03-11", wed, nil)
			require.NoError(t, err)
			s3, err := submit(b1Self, "2026-03-11", wed.Add(5*time.Minute), testutil.IntPtr(12))
			require.NoError(t, err)
			s4, err := submit(b2, "2026-03-11", wed.Add(time.Minute), nil)
			require.NoError(t, err)

			got, err := repos.Submissions.GetSubmission(ctx, s3.ID)
			require.NoError(t, err)
			require.NotNil(t, got.PagesDone)
			assert.Equal(t, 12, *got.PagesDone)
			assert.Equal(t, "2026-03-11", got.SchoolDate.String())
			assert.True(t, got.Timestamp.Equal(wed.Add(5*time.Minute)))

			cal, _ := testutil.Calendar(tue)
			found, err := repos.Submissions.FindActiveSubmission(ctx, b1.ID, cal.DayRange(testutil.Date(t, "2026-03-10")))
			require.NoError(t, err)
			assert.Equal(t, s1.ID, found.ID)
			_, err = repos.Submissions.FindActiveSubmission(ctx, b1.ID, cal.DayRange(testutil.Date(t, "2026-03-12")))
			assert.True(t, errors.Is(err, submission.ErrNotFound))

			// totals
			sum, err := repos.Submissions.SumPoints(ctx, st1.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, sum)
			wedRange := cal.DayRange(testutil.Date(t, "2026-03-11"))
			sum, err = repos.Submissions.SumPoints(ctx, st1.ID, &wedRange)
			require.NoError(t, err)
			assert.Equal(t, 2, sum)

			// scores
			scores, err := repos.Submissions.StudentScores(ctx, class.ID, nil)
			require.NoError(t, err)
			require.Len(t, scores, 2)
			byID := make(map[string]int)
			for _, s := range scores {
				byID[s.StudentID] = s.Points
				if s.StudentID == st1.ID {
					assert.Equal(t, 1, s.Number)
					assert.Equal(t, "生徒01", s.StudentName)
					assert.True(t, s.LastSubmittedAt.Equal(wed.Add(5*time.Minute)), "last submitted at = %v", s.LastSubmittedAt)
				}
			}
			assert.Equal(t, map[string]int{st1.ID: 3, st2.ID: 1}, byID)

			// events
			events, err := repos.Submissions.RecentEvents(ctx, class.ID, 2)
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, s3.ID, events[0].ID)
			assert.Equal(t, "自習", events[0].MaterialName)
			assert.Equal(t, "生徒01", events[0].StudentName)
			assert.Equal(t, s4.ID, events[1].ID)

			// void
			voidAt := wed.Add(time.Hour)
			voided, err := repos.Submissions.VoidSubmission(ctx, s1.ID, submission.ReasonManualUndo, voidAt)
			require.NoError(t, err)
			assert.True(t, voided.IsVoid)
			assert.Equal(t, submission.ReasonManualUndo, voided.VoidReason)
			require.NotNil(t, voided.VoidedAt)
			assert.True(t, voided.VoidedAt.Equal(voidAt))

			again, err := repos.Submissions.VoidSubmission(ctx, s1.ID, submission.ReasonScanUndo, voidAt.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, submission.ReasonManualUndo, again.VoidReason, "voiding twice keeps the first reason")
			assert.True(t, again.VoidedAt.Equal(voidAt))

			_, err = repos.Submissions.VoidSubmission(ctx, "00000000-0000-0000-0000-000000000000", "", voidAt)
			assert.True(t, errors.Is(err, submission.ErrNotFound))

			sum, err = repos.Submissions.SumPoints(ctx, st1.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, 2, sum, "void submissions do not count")

			_, err = submit(b1, "2026-03-10", tue.Add(2*time.Hour), nil)
			assert.NoError(t, err, "a voided day can be submitted again")
		})
	}
}
