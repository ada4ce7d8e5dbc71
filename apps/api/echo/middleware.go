package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/submission"
)

const contextObjectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxObjectMiddleware loads the object identified by the "id" path param with find and sets it in the context.
// Objects the caller may not access are reported as not found.
func ctxObjectMiddleware(
	find func(ctx context.Context, id string) (interface{}, string, error),
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			obj, classID, err := find(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				var dErr *core.DomainError
				if errors.As(err, &dErr) && dErr.Kind == core.KindNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding context object")
			}
			if !claims.CanAccessClass(classID) {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func ctxClassMiddleware(repo roster.Repository) echo.MiddlewareFunc {
	return ctxObjectMiddleware(func(ctx context.Context, id string) (interface{}, string, error) {
		class, err := repo.GetClass(ctx, id)
		return class, class.ID, err
	})
}

func ctxStudentMiddleware(repo roster.Repository) echo.MiddlewareFunc {
	return ctxObjectMiddleware(func(ctx context.Context, id string) (interface{}, string, error) {
		student, err := repo.GetStudent(ctx, id)
		return student, student.ClassID, err
	})
}

func ctxSubmissionMiddleware(svc LedgerService) echo.MiddlewareFunc {
	return ctxObjectMiddleware(func(ctx context.Context, id string) (interface{}, string, error) {
		sub, err := svc.Get(ctx, id)
		return sub, sub.ClassID, err
	})
}

func getContextClass(ctx echo.Context) (roster.Class, error) {
	if class, ok := ctx.Get(contextObjectKey).(roster.Class); ok {
		return class, nil
	}
	return roster.Class{}, errObjNotFoundInCtx
}

func getContextStudent(ctx echo.Context) (roster.Student, error) {
	if student, ok := ctx.Get(contextObjectKey).(roster.Student); ok {
		return student, nil
	}
	return roster.Student{}, errObjNotFoundInCtx
}

func getContextSubmission(ctx echo.Context) (submission.Submission, error) {
	if sub, ok := ctx.Get(contextObjectKey).(submission.Submission); ok {
		return sub, nil
	}
	return submission.Submission{}, errObjNotFoundInCtx
}
