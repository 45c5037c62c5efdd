package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/learnhub/backoffice/internal/model"
)

func (s *Store) ListDayPackages(ctx context.Context) ([]model.Option, error) {
	return s.listOptions(ctx, `select id, name, '' from day_packages order by id asc`)
}

func (s *Store) ListPermissionReasons(ctx context.Context) ([]model.Option, error) {
	return s.listOptions(ctx, `select id, name, '' from permission_reasons order by id asc`)
}

func (s *Store) ListControlOptions(ctx context.Context) ([]model.Option, error) {
	return s.listOptions(ctx, `select id, name, coalesce(value, '') from control_options order by id asc`)
}

func (s *Store) GetFilterOptions(ctx context.Context) (*model.FilterOptions, error) {
	var out model.FilterOptions
	var err error
	if out.Statuses, err = s.listOptions(ctx, `select id, name, '' from student_statuses order by id asc`); err != nil {
		return nil, err
	}
	if out.Packages, err = s.listOptions(ctx, `select id, name, '' from packages order by id asc`); err != nil {
		return nil, err
	}
	if out.Subjects, err = s.listOptions(ctx, `select id, name, '' from subjects order by name asc`); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListStudentConfigs(ctx context.Context) ([]model.StudentConfig, error) {
	rows, err := s.db.Query(ctx, `select key, value from student_configs order by key asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.StudentConfig, 0)
	for rows.Next() {
		var c model.StudentConfig
		if err := rows.Scan(&c.Key, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListTeachers(ctx context.Context) ([]model.TeacherSummary, error) {
	rows, err := s.db.Query(ctx, `select id, name from teachers order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TeacherSummary, 0)
	for rows.Next() {
		var t model.TeacherSummary
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetTeacherExamStats(ctx context.Context, teacherID int64) (*model.ExamStats, error) {
	const q = `
select t.id,
       count(e.id),
       count(e.id) filter (where e.passed),
       count(e.id) filter (where not e.passed),
       coalesce(avg(e.score), 0)::float8
from teachers t
left join exams e on e.teacher_id = t.id
where t.id = $1
group by t.id`
	var out model.ExamStats
	if err := s.db.QueryRow(ctx, q, teacherID).Scan(
		&out.TeacherID, &out.TotalExams, &out.Passed, &out.Failed, &out.AverageScore,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (s *Store) listOptions(ctx context.Context, q string) ([]model.Option, error) {
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Option, 0)
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Value); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
