// Package roster gives read access to the school rosters (classes, students, materials).
// Rosters are only written by seeding.
package roster

import (
	"context"
	"fmt"

	"github.com/trezcool/workbook/core"
)

var (
	// errors
	ErrClassNotFound    = core.NewDomainError(core.KindNotFound, "not_found", "class not found")
	ErrStudentNotFound  = core.NewDomainError(core.KindNotFound, "not_found", "student not found")
	ErrMaterialNotFound = core.NewDomainError(core.KindNotFound, "not_found", "material not found")
)

type Repository interface {
	GetClass(ctx context.Context, id string) (Class, error)
	FindClass(ctx context.Context, year int, classCode string) (Class, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	FindStudent(ctx context.Context, classID string, number int) (Student, error)
	// QueryStudents returns the students of a class ordered by number.
	QueryStudents(ctx context.Context, classID string) ([]Student, error)
	GetMaterial(ctx context.Context, id string) (Material, error)
	FindMaterial(ctx context.Context, code string) (Material, error)
	// QueryMaterials returns materials ordered by code.
	QueryMaterials(ctx context.Context, activeOnly bool) ([]Material, error)

	// SaveClass, SaveStudent and SaveMaterial upsert by natural key: (year, class code), (class, number) and code.
	SaveClass(ctx context.Context, class Class) (Class, error)
	SaveStudent(ctx context.Context, student Student) (Student, error)
	SaveMaterial(ctx context.Context, material Material) (Material, error)
}

type Seed struct {
	Class     Class
	Students  []Student
	Materials []Material
}

// DemoSeed is the roster used for local development.
func DemoSeed() Seed {
	seed := Seed{
		Class: Class{Year: 2026, ClassCode: "3A", Name: "3年A組"},
		Materials: []Material{
			{Code: "KANJI", Name: "漢字ドリル", PointsPerSubmit: 1, Mode: ModeNormal, IsActive: true},
			{Code: "KEISAN", Name: "計算ドリル", PointsPerSubmit: 1, Mode: ModeNormal, IsActive: true},
			{Code: "ONDOKU", Name: "音読", PointsPerSubmit: 1, Mode: ModeNormal, IsActive: true},
			{Code: "SELF", Name: "自習", PointsPerSubmit: 1, Mode: ModeSelfStudy, IsActive: true},
		},
	}
	for n := 1; n <= 20; n++ {
		seed.Students = append(seed.Students, Student{Number: n, DisplayName: studentName(n)})
	}
	return seed
}

func studentName(n int) string {
	return fmt.Sprintf("生徒%02d", n)
}

// Apply upserts the seed and returns the saved class.
func (s Seed) Apply(ctx context.Context, repo Repository) (Class, error) {
	class, err := repo.SaveClass(ctx, s.Class)
	if err != nil {
		return Class{}, err
	}
	for _, m := range s.Materials {
		if _, err = repo.SaveMaterial(ctx, m); err != nil {
			return Class{}, err
		}
	}
	for _, st := range s.Students {
		st.ClassID = class.ID
		if _, err = repo.SaveStudent(ctx, st); err != nil {
			return Class{}, err
		}
	}
	return class, nil
}
