package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/learnhub/backoffice/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
)

type Store struct {
	db DB
}

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) LookupJoinInfo(ctx context.Context, token string) (*model.JoinInfo, error) {
	const q = `
select coalesce(s.zoom_link, ''), coalesce(t.name, ''), coalesce(st.name, '')
from class_sessions s
left join teachers t on t.id = s.teacher_id
left join students st on st.id = s.student_id
where s.tracking_token = $1
limit 1`
	var out model.JoinInfo
	if err := s.db.QueryRow(ctx, q, token).Scan(&out.Link, &out.TeacherName, &out.StudentName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// RecordJoin marks the session active and stamps clicked_at in one write.
// Repeating it re-stamps the join time.
func (s *Store) RecordJoin(ctx context.Context, token string, at time.Time) error {
	const q = `
update class_sessions
set clicked_at = $2,
    session_status = 'active',
    updated_at = $2
where tracking_token = $1`
	tag, err := s.db.Exec(ctx, q, token, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordHeartbeat reports whether an active session was touched. Unknown
// tokens and inactive sessions both yield false with a nil error.
func (s *Store) RecordHeartbeat(ctx context.Context, token string, at time.Time) (bool, error) {
	const q = `
update class_sessions
set last_activity_at = $2,
    updated_at = $2
where tracking_token = $1 and session_status = 'active'`
	tag, err := s.db.Exec(ctx, q, token, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*model.Session, error) {
	const q = `
select s.id, s.tracking_token, s.session_status, coalesce(s.zoom_link, ''),
       s.clicked_at, s.last_activity_at, s.ended_at,
       coalesce(t.name, ''), coalesce(st.name, '')
from class_sessions s
left join teachers t on t.id = s.teacher_id
left join students st on st.id = s.student_id
where s.tracking_token = $1
limit 1`
	var out model.Session
	if err := s.db.QueryRow(ctx, q, token).Scan(
		&out.ID, &out.TrackingToken, &out.Status, &out.Link,
		&out.ClickedAt, &out.LastActivityAt, &out.EndedAt,
		&out.TeacherName, &out.StudentName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// IssueTrackingToken binds token to a session that does not have one yet.
func (s *Store) IssueTrackingToken(ctx context.Context, sessionID int64, token string) error {
	const q = `
update class_sessions
set tracking_token = $2, updated_at = now()
where id = $1 and tracking_token is null`
	tag, err := s.db.Exec(ctx, q, sessionID, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EndStaleSessions ends every active session whose last sign of life is
// older than cutoff. checked counts all active sessions seen before the update.
func (s *Store) EndStaleSessions(ctx context.Context, cutoff, now time.Time) (checked, ended int, err error) {
	if err := s.db.QueryRow(ctx, `select count(*) from class_sessions where session_status = 'active'`).Scan(&checked); err != nil {
		return 0, 0, err
	}
	if checked == 0 {
		return 0, 0, nil
	}

	const q = `
update class_sessions
set session_status = 'ended',
    ended_at = $2,
    updated_at = $2
where session_status = 'active'
  and coalesce(last_activity_at, clicked_at) < $1`
	tag, err := s.db.Exec(ctx, q, cutoff, now)
	if err != nil {
		return checked, 0, err
	}
	return checked, int(tag.RowsAffected()), nil
}
