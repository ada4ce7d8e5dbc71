package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/workbook/core/roster"
)

type rosterRepository struct {
	db *rosterTables
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) *rosterRepository {
	return &rosterRepository{db: db.roster}
}

func (repo *rosterRepository) GetClass(_ context.Context, id string) (roster.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return *c, nil
	}
	return roster.Class{}, roster.ErrClassNotFound
}

func (repo *rosterRepository) findClass(year int, classCode string) *roster.Class {
	for _, c := range repo.db.classes {
		if c.Year == year && c.ClassCode == classCode {
			return c
		}
	}
	return nil
}

func (repo *rosterRepository) FindClass(_ context.Context, year int, classCode string) (roster.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c := repo.findClass(year, classCode); c != nil {
		return *c, nil
	}
	return roster.Class{}, roster.ErrClassNotFound
}

func (repo *rosterRepository) GetStudent(_ context.Context, id string) (roster.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (repo *rosterRepository) findStudent(classID string, number int) *roster.Student {
	for _, s := range repo.db.students {
		if s.ClassID == classID && s.Number == number {
			return s
		}
	}
	return nil
}

func (repo *rosterRepository) FindStudent(_ context.Context, classID string, number int) (roster.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s := repo.findStudent(classID, number); s != nil {
		return *s, nil
	}
	return roster.Student{}, roster.ErrStudentNotFound
}

func (repo *rosterRepository) QueryStudents(_ context.Context, classID string) ([]roster.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]roster.Student, 0)
	for _, s := range repo.db.students {
		if s.ClassID == classID {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Number < students[j].Number })
	return students, nil
}

func (repo *rosterRepository) GetMaterial(_ context.Context, id string) (roster.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.materials[id]; ok {
		return *m, nil
	}
	return roster.Material{}, roster.ErrMaterialNotFound
}

func (repo *rosterRepository) findMaterial(code string) *roster.Material {
	for _, m := range repo.db.materials {
		if m.Code == code {
			return m
		}
	}
	return nil
}

func (repo *rosterRepository) FindMaterial(_ context.Context, code string) (roster.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m := repo.findMaterial(code); m != nil {
		return *m, nil
	}
	return roster.Material{}, roster.ErrMaterialNotFound
}

func (repo *rosterRepository) QueryMaterials(_ context.Context, activeOnly bool) ([]roster.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	materials := make([]roster.Material, 0, len(repo.db.materials))
	for _, m := range repo.db.materials {
		if !activeOnly || m.IsActive {
			materials = append(materials, *m)
		}
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].Code < materials[j].Code })
	return materials, nil
}

func (repo *rosterRepository) SaveClass(_ context.Context, class roster.Class) (roster.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c := repo.findClass(class.Year, class.ClassCode); c != nil {
		class.ID = c.ID
	} else {
		class.ID = uuid.New().String()
	}
	repo.db.classes[class.ID] = &class
	return class, nil
}

func (repo *rosterRepository) SaveStudent(_ context.Context, student roster.Student) (roster.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[student.ClassID]; !ok {
		return roster.Student{}, roster.ErrClassNotFound
	}
	if s := repo.findStudent(student.ClassID, student.Number); s != nil {
		student.ID = s.ID
	} else {
		student.ID = uuid.New().String()
	}
	repo.db.students[student.ID] = &student
	return student, nil
}

func (repo *rosterRepository) SaveMaterial(_ context.Context, material roster.Material) (roster.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if m := repo.findMaterial(material.Code); m != nil {
		material.ID = m.ID
	} else {
		material.ID = uuid.New().String()
	}
	repo.db.materials[material.ID] = &material
	return material, nil
}
