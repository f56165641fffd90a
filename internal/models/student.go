package models

import "time"

// Student is a learner registered with the school.
type Student struct {
	ID                string     `db:"id" json:"id"`
	StudentIDNational string     `db:"student_id_national" json:"student_id_national"`
	StudentIDSchool   string     `db:"student_id_school" json:"student_id_school"`
	Name              string     `db:"name" json:"name"`
	Gender            string     `db:"gender" json:"gender"`
	BirthDate         *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// ClassMember is a student enrolled in a class for an academic year.
type ClassMember struct {
	Student
	ClassID      string `db:"class_id" json:"class_id"`
	AcademicYear string `db:"academic_year" json:"academic_year"`
}

// RosterEntry pairs a class member with their record on a form, if any.
type RosterEntry struct {
	ClassMember
	Record *Record `json:"record,omitempty"`
}
