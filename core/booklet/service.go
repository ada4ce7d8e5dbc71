package booklet

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/qr"
	"github.com/trezcool/workbook/core/roster"
)

var (
	// errors
	ErrNotFound       = core.NewDomainError(core.KindNotFound, "not_found", "booklet not found")
	ErrConflict       = core.NewDomainError(core.KindConflict, "conflict", "a booklet with this payload or for this student and material already exists")
	ErrWrongClassScan = core.NewDomainError(core.KindInvalid, "wrong_class_scan", "the scanned booklet belongs to another class")
)

type (
	Repository interface {
		// CreateBooklet returns ErrConflict when the payload or the (student, material) pair is taken.
		CreateBooklet(ctx context.Context, b Booklet) (Booklet, error)
		GetBooklet(ctx context.Context, id string) (Booklet, error)
		GetBookletByPayload(ctx context.Context, payload string) (Booklet, error)
		GetBookletByPair(ctx context.Context, studentID, materialID string) (Booklet, error)
		// UpdateBookletPayload returns ErrConflict when the payload is taken by another booklet.
		UpdateBookletPayload(ctx context.Context, id, payload string, updatedAt time.Time) (Booklet, error)
	}

	Service struct {
		repo    Repository
		roster  roster.Repository
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, rosterRepo roster.Repository) *Service {
	return &Service{repo: repo, roster: rosterRepo, nowFunc: time.Now}
}

func (svc *Service) create(ctx context.Context, studentID, materialID, payload string) (Booklet, error) {
	now := svc.nowFunc().UTC()
	return svc.repo.CreateBooklet(ctx, Booklet{
		StudentID:  studentID,
		MaterialID: materialID,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Resolve maps a decoded payload to its booklet, binding one on the fly when the payload's class, student
// and material all exist. The class of the payload must be classID.
// Membership of an already bound booklet is checked separately by CheckClass.
func (svc *Service) Resolve(ctx context.Context, dec qr.Decoded, classID string) (Resolution, error) {
	b, err := svc.repo.GetBookletByPayload(ctx, dec.Payload)
	if err == nil {
		return Bound{Booklet: b}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "finding booklet by payload")
	}

	unresolved := Unresolved{Identity: dec.Identity, Payload: dec.Payload}

	class, err := svc.roster.FindClass(ctx, dec.Year, dec.ClassCode)
	if err != nil {
		if errors.Is(err, roster.ErrClassNotFound) {
			return unresolved, nil
		}
		return nil, errors.Wrap(err, "finding class")
	}
	if class.ID != classID {
		return nil, ErrWrongClassScan
	}

	material, err := svc.roster.FindMaterial(ctx, dec.MaterialCode)
	if err != nil {
		if errors.Is(err, roster.ErrMaterialNotFound) {
			return unresolved, nil
		}
		return nil, errors.Wrap(err, "finding material")
	}
	student, err := svc.roster.FindStudent(ctx, class.ID, dec.StudentNumber)
	if err != nil {
		if errors.Is(err, roster.ErrStudentNotFound) {
			return unresolved, nil
		}
		return nil, errors.Wrap(err, "finding student")
	}

	b, err = svc.create(ctx, student.ID, material.ID, dec.Payload)
	if err == nil {
		return Bound{Booklet: b, Created: true}, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, errors.Wrap(err, "binding booklet")
	}

	// a concurrent scan bound it first
	b, err = svc.repo.GetBookletByPayload(ctx, dec.Payload)
	if err == nil {
		return Bound{Booklet: b}, nil
	}
	if errors.Is(err, ErrNotFound) {
		// the pair is bound to another payload
		return nil, ErrConflict.WithReason("the student's booklet for this material has a different QR code")
	}
	return nil, errors.Wrap(err, "finding booklet by payload")
}

// CheckClass fails with ErrWrongClassScan if the booklet's student is not in the class.
func (svc *Service) CheckClass(ctx context.Context, b Booklet, classID string) error {
	student, err := svc.roster.GetStudent(ctx, b.StudentID)
	if err != nil {
		return errors.Wrap(err, "finding booklet student")
	}
	if student.ClassID != classID {
		return ErrWrongClassScan
	}
	return nil
}

// Create binds a booklet manually ("rescue" binding after a failed scan).
func (svc *Service) Create(ctx context.Context, nb NewBooklet) (Booklet, error) {
	dec, err := qr.Decode(nb.Payload)
	if err != nil {
		return Booklet{}, err
	}
	if _, err = svc.roster.GetStudent(ctx, nb.StudentID); err != nil {
		return Booklet{}, err
	}
	if _, err = svc.roster.GetMaterial(ctx, nb.MaterialID); err != nil {
		return Booklet{}, err
	}

	if _, err = svc.repo.GetBookletByPayload(ctx, dec.Payload); err == nil {
		return Booklet{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return Booklet{}, errors.Wrap(err, "finding booklet by payload")
	}
	if _, err = svc.repo.GetBookletByPair(ctx, nb.StudentID, nb.MaterialID); err == nil {
		return Booklet{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return Booklet{}, errors.Wrap(err, "finding booklet by student and material")
	}

	return svc.create(ctx, nb.StudentID, nb.MaterialID, dec.Payload)
}

func (svc *Service) Detail(ctx context.Context, id string) (Detail, error) {
	b, err := svc.repo.GetBooklet(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	student, err := svc.roster.GetStudent(ctx, b.StudentID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "finding booklet student")
	}
	material, err := svc.roster.GetMaterial(ctx, b.MaterialID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "finding booklet material")
	}
	return Detail{Booklet: b, Student: student, Material: material}, nil
}

// Provision makes sure every student of the class has a booklet for every active material,
// regenerating the payloads that do not match the roster anymore.
func (svc *Service) Provision(ctx context.Context, classID string) (ProvisionReport, error) {
	var report ProvisionReport

	class, err := svc.roster.GetClass(ctx, classID)
	if err != nil {
		return report, err
	}
	students, err := svc.roster.QueryStudents(ctx, class.ID)
	if err != nil {
		return report, errors.Wrap(err, "querying students")
	}
	materials, err := svc.roster.QueryMaterials(ctx, true /* activeOnly */)
	if err != nil {
		return report, errors.Wrap(err, "querying materials")
	}

	for _, st := range students {
		for _, mat := range materials {
			id := qr.Identity{Year: class.Year, ClassCode: class.ClassCode, StudentNumber: st.Number, MaterialCode: mat.Code}
			payload := id.Payload()

			b, err := svc.repo.GetBookletByPair(ctx, st.ID, mat.ID)
			switch {
			case errors.Is(err, ErrNotFound):
				_, err = svc.create(ctx, st.ID, mat.ID, payload)
				if err == nil {
					report.Created++
				}
			case err != nil:
				return report, errors.Wrap(err, "finding booklet by student and material")
			case b.Payload == payload:
				report.Unchanged++
			default:
				_, err = svc.repo.UpdateBookletPayload(ctx, b.ID, payload, svc.nowFunc().UTC())
				if err == nil {
					report.Updated++
				}
			}

			if errors.Is(err, ErrConflict) {
				// payload held by another student's booklet; needs a manual fix
				report.Skipped++
				continue
			}
			if err != nil {
				return report, errors.Wrap(err, "provisioning booklet")
			}
			report.Codes = append(report.Codes, id.Encode())
		}
	}
	return report, nil
}
