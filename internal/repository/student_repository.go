package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitness-score-api/internal/models"
)

const studentColumns = "s.id, s.student_id_national, s.student_id_school, s.name, s.gender, s.birth_date, s.created_at, s.updated_at"

// StudentRepository reads students and their class enrollments.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students s WHERE s.id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDs fetches students keyed by ID. Unknown IDs are absent from the map.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Student, error) {
	if len(ids) == 0 {
		return map[string]models.Student{}, nil
	}
	query, args, err := sqlx.In("SELECT "+studentColumns+" FROM students s WHERE s.id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build students query: %w", err)
	}
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	out := make(map[string]models.Student, len(students))
	for _, s := range students {
		out[s.ID] = s
	}
	return out, nil
}

// ListClassMembers returns the active members of a class for an academic year ordered by school ID.
func (r *StudentRepository) ListClassMembers(ctx context.Context, classID, academicYear string) ([]models.ClassMember, error) {
	query := "SELECT " + studentColumns + `, scr.class_id, scr.academic_year
FROM student_class_relations scr JOIN students s ON s.id = scr.student_id
WHERE scr.class_id = $1 AND scr.academic_year = $2 AND scr.is_active = TRUE
ORDER BY s.student_id_school ASC`
	var members []models.ClassMember
	if err := r.db.SelectContext(ctx, &members, query, classID, academicYear); err != nil {
		return nil, fmt.Errorf("list class members: %w", err)
	}
	return members, nil
}

// CountClassMembers counts active members of a class for an academic year.
func (r *StudentRepository) CountClassMembers(ctx context.Context, classID, academicYear string) (int, error) {
	const query = `SELECT COUNT(*) FROM student_class_relations WHERE class_id = $1 AND academic_year = $2 AND is_active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, academicYear); err != nil {
		return 0, fmt.Errorf("count class members: %w", err)
	}
	return count, nil
}
