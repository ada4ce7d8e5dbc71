package submission_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/submission"
	"github.com/trezcool/workbook/testutil"
)

type fixture struct {
	ledger *submission.Service
	clock  *testutil.Clock
	kanji  booklet.Booklet // student 1
	self   booklet.Booklet // student 1
}

func setup(t *testing.T, engine testutil.Engine) fixture {
	ctx := context.Background()
	repos := engine.Repos(t)
	class := testutil.SeedDemo(t, repos.Roster)
	cal, clock := testutil.Calendar(testutil.At(2026, time.March, 10, 9, 0)) // Tuesday

	booklets := booklet.NewService(repos.Booklets, repos.Roster)
	bind := func(raw string) booklet.Booklet {
		dec, err := qr.Decode(raw)
		require.NoError(t, err)
		res, err := booklets.Resolve(ctx, dec, class.ID)
		require.NoError(t, err)
		return res.(booklet.Bound).Booklet
	}

	return fixture{
		ledger: submission.NewService(repos.Submissions, booklets, cal),
		clock:  clock,
		kanji:  bind("T4|BM|2026|3A|001|KANJI|A0"),
		self:   bind("T4|BM|2026|3A|001|SELF|D9"),
	}
}

func TestService_Submit(t *testing.T) {
	for _, engine := range testutil.Engines {
		t.Run(engine.Name, func(t *testing.T) {
			ctx := context.Background()
			f := setup(t, engine)

			out, err := f.ledger.Submit(ctx, submission.NewSubmission{
				BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-10"), PagesDone: testutil.IntPtr(5),
			})
			require.NoError(t, err)
			rec, ok := out.(submission.Recorded)
			require.True(t, ok, "Submit() = %T, want submission.Recorded", out)
			assert.Equal(t, 1, rec.Submission.PointsAwarded)
			assert.Nil(t, rec.Submission.PagesDone, "pages are only kept for self-study materials")
			assert.Equal(t, "2026-03-10", rec.Submission.SchoolDate.String())
			assert.True(t, rec.Submission.Timestamp.Equal(testutil.At(2026, time.March, 10, 9, 0)))
			assert.Equal(t, "生徒01", rec.Booklet.Student.DisplayName)

			f.clock.Set(testutil.At(2026, time.March, 10, 15, 0))
			out, err = f.ledger.Submit(ctx, submission.NewSubmission{BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-10")})
			require.NoError(t, err)
			dup, ok := out.(submission.DuplicateForDay)
			require.True(t, ok, "Submit() = %T, want submission.DuplicateForDay", out)
			assert.Equal(t, rec.Submission.ID, dup.ExistingID)

			// backdated scans land on their school date
			out, err = f.ledger.Submit(ctx, submission.NewSubmission{BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-09")})
			require.NoError(t, err)
			back, ok := out.(submission.Recorded)
			require.True(t, ok, "Submit() = %T, want submission.Recorded", out)
			assert.True(t, back.Submission.Timestamp.Equal(testutil.At(2026, time.March, 9, 15, 0)))

			f.clock.Set(testutil.At(2026, time.March, 11, 8, 0))
			out, err = f.ledger.Submit(ctx, submission.NewSubmission{BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-11")})
			require.NoError(t, err)
			_, ok = out.(submission.Recorded)
			assert.True(t, ok, "a new day accepts a new submission")

			tests := []struct {
				name    string
				ns      submission.NewSubmission
				wantErr error
			}{
				{
					name:    "saturday",
					ns:      submission.NewSubmission{BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-14")},
					wantErr: submission.ErrNonSchoolDay,
				},
				{
					name:    "sunday",
					ns:      submission.NewSubmission{BookletID: f.kanji.ID, Date: testutil.Date(t, "2026-03-15")},
					wantErr: submission.ErrNonSchoolDay,
				},
				{
					name:    "self-study without pages",
					ns:      submission.NewSubmission{BookletID: f.self.ID, Date: testutil.Date(t, "2026-03-11")},
					wantErr: submission.ErrMissingPagesForSelfStudy,
				},
				{
					name:    "self-study with 0 pages",
					ns:      submission.NewSubmission{BookletID: f.self.ID, Date: testutil.Date(t, "2026-03-11"), PagesDone: testutil.IntPtr(0)},
					wantErr: submission.ErrMissingPagesForSelfStudy,
				},
				{
					name:    "unknown booklet",
					ns:      submission.NewSubmission{BookletID: "00000000-0000-0000-0000-000000000000", Date: testutil.Date(t, "2026-03-11")},
					wantErr: booklet.ErrNotFound,
				},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if _, err := f.ledger.Submit(ctx, tt.ns); !errors.Is(err, tt.wantErr) {
						t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
					}
				})
			}

			out, err = f.ledger.Submit(ctx, submission.NewSubmission{
				BookletID: f.self.ID, Date: testutil.Date(t, "2026-03-11"), PagesDone: testutil.IntPtr(12),
			})
			require.NoError(t, err)
			rec, ok = out.(submission.Recorded)
			require.True(t, ok, "Submit() = %T, want submission.Recorded", out)
			require.NotNil(t, rec.Submission.PagesDone)
			assert.Equal(t, 12, *rec.Submission.PagesDone)
		})
	}
}

func TestService_Void(t *testing.T) {
	for _, engine := range testutil.Engines {
		t.Run(engine.Name, func(t *testing.T) {
			ctx := context.Background()
			f := setup(t, engine)
			tue := testutil.Date(t, "2026-03-10")

			out, err := f.ledger.Submit(ctx, submission.NewSubmission{BookletID: f.kanji.ID, Date: tue})
			require.NoError(t, err)
			sub := out.(submission.Recorded).Submission

			f.clock.Set(testutil.At(2026, time.March, 10, 9, 1))
			voided, err := f.ledger.Void(ctx, sub.ID, "")
			require.NoError(t, err)
			assert.True(t, voided.IsVoid)
			assert.Equal(t, submission.ReasonScanUndo, voided.VoidReason)
			require.NotNil(t, voided.VoidedAt)
			assert.True(t, voided.VoidedAt.Equal(testutil.At(2026, time.March, 10, 9, 1)))

			again, err := f.ledger.Void(ctx, sub.ID, submission.ReasonManualUndo)
			require.NoError(t, err)
			assert.Equal(t, submission.ReasonScanUndo, again.VoidReason, "voiding is idempotent")

			got, err := f.ledger.Get(ctx, sub.ID)
			require.NoError(t, err)
			assert.True(t, got.IsVoid, "void submissions are kept")

			// the day is free again
			out, err = f.ledger.Submit(ctx, submission.NewSubmission{BookletID: f.kanji.ID, Date: tue})
			require.NoError(t, err)
			_, ok := out.(submission.Recorded)
			assert.True(t, ok, "Submit() = %T, want submission.Recorded", out)

			_, err = f.ledger.Void(ctx, "00000000-0000-0000-0000-000000000000", "")
			assert.True(t, errors.Is(err, submission.ErrNotFound))
		})
	}
}

func TestVoidRequest_Validate(t *testing.T) {
	validate, _ := testutil.Validator()

	vr := submission.VoidRequest{Reason: "  typo  "}
	require.NoError(t, vr.Validate(validate))
	assert.Equal(t, "typo", vr.Reason)

	empty := submission.VoidRequest{}
	assert.NoError(t, empty.Validate(validate))

	long := submission.VoidRequest{Reason: strings.Repeat("x", 201)}
	assert.Error(t, long.Validate(validate))
}
