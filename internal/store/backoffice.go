package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnhub/backoffice/internal/model"
)

type ReviewAbsenceInput struct {
	ID         uuid.UUID
	IsReviewed bool
	Note       string
	ReviewerID string
	At         time.Time
}

type CreateNotificationInput struct {
	TeacherID string
	Title     string
	Message   string
	At        time.Time
}

func (s *Store) ReviewAbsence(ctx context.Context, in ReviewAbsenceInput) (*model.AbsenceRecord, error) {
	const q = `
with updated as (
  update absence_records
  set is_reviewed = $2,
      review_note = nullif($3, ''),
      reviewed_by = case when $2 then $4 else null end,
      reviewed_at = case when $2 then $5::timestamptz else null end
  where id = $1
  returning id, student_id, teacher_id, class_date, permission_reason, is_reviewed, review_note, reviewed_at, reviewed_by
)
select u.id::text, u.student_id, coalesce(st.name, ''), u.teacher_id, u.class_date,
       coalesce(u.permission_reason, ''), u.is_reviewed, coalesce(u.review_note, ''),
       u.reviewed_at, coalesce(u.reviewed_by, '')
from updated u
left join students st on st.id = u.student_id`
	var out model.AbsenceRecord
	if err := s.db.QueryRow(ctx, q, in.ID, in.IsReviewed, in.Note, in.ReviewerID, in.At).Scan(
		&out.ID, &out.StudentID, &out.StudentName, &out.TeacherID, &out.ClassDate,
		&out.PermissionReason, &out.IsReviewed, &out.ReviewNote,
		&out.ReviewedAt, &out.ReviewedBy,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// ListNotifications returns notifications addressed to recipientID or to the
// whole role (recipient_id is null), newest first.
func (s *Store) ListNotifications(ctx context.Context, role, recipientID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	const q = `
select id::text, recipient_role, coalesce(recipient_id, ''), title, message, is_read, created_at
from notifications
where recipient_role = $1
  and (recipient_id is null or recipient_id = $2)
  and ($3 = false or is_read = false)
order by created_at desc
limit $4`
	rows, err := s.db.Query(ctx, q, role, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientRole, &n.RecipientID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTeacherNotification writes one row per addressed teacher. An empty
// TeacherID broadcasts to every teacher on the roster.
func (s *Store) CreateTeacherNotification(ctx context.Context, in CreateNotificationInput) (int, error) {
	const q = `
insert into notifications (id, recipient_role, recipient_id, title, message, is_read, created_at)
select gen_random_uuid(), 'teacher', t.id::text, $2, $3, false, $4
from teachers t
where $1 = '' or t.id::text = $1`
	tag, err := s.db.Exec(ctx, q, in.TeacherID, in.Title, in.Message, in.At)
	if err != nil {
		return 0, err
	}
	if in.TeacherID != "" && tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return int(tag.RowsAffected()), nil
}

// MarkNotificationsRead marks the recipient's unread notifications as read,
// limited to ids when any are given.
func (s *Store) MarkNotificationsRead(ctx context.Context, role, recipientID string, ids []string) (int, error) {
	if ids == nil {
		ids = []string{}
	}
	const q = `
update notifications
set is_read = true
where recipient_role = $1
  and recipient_id = $2
  and is_read = false
  and (cardinality($3::text[]) = 0 or id::text = any($3::text[]))`
	tag, err := s.db.Exec(ctx, q, role, recipientID, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) UpdateAdminPhone(ctx context.Context, adminID, phone string) error {
	tag, err := s.db.Exec(ctx, `update admins set phone = $2, updated_at = now() where id::text = $1`, adminID, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountActiveStudents(ctx context.Context, teacherID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `select count(*) from students where teacher_id::text = $1 and status = 'active'`, teacherID).Scan(&n)
	return n, err
}
