package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-insights/internal/notify"
	"github.com/p-n-ai/pai-insights/internal/student"
)

const dbTimeout = 5 * time.Second

//go:embed schema.sql
var schema string

// PostgresStore is a PostgreSQL-backed Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables the store needs if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) SaveStudent(ctx context.Context, info student.Info) error {
	if info.ID == "" {
		return fmt.Errorf("student id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO students (id, parent_id, name, age, grade, section, school, profile_pic_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   parent_id = EXCLUDED.parent_id,
		   name = EXCLUDED.name,
		   age = EXCLUDED.age,
		   grade = EXCLUDED.grade,
		   section = EXCLUDED.section,
		   school = EXCLUDED.school,
		   profile_pic_url = EXCLUDED.profile_pic_url`,
		info.ID,
		nullIfEmpty(info.ParentID),
		info.Name,
		info.Age,
		info.Grade,
		info.Section,
		info.School,
		info.ProfilePicURL,
	)
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

const studentColumns = `id, COALESCE(parent_id, ''), name, age, grade, section, school, profile_pic_url`

func scanStudent(row pgx.Row) (student.Info, error) {
	var info student.Info
	err := row.Scan(
		&info.ID,
		&info.ParentID,
		&info.Name,
		&info.Age,
		&info.Grade,
		&info.Section,
		&info.School,
		&info.ProfilePicURL,
	)
	return info, err
}

func (s *PostgresStore) Student(ctx context.Context, id string) (student.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	info, err := scanStudent(s.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return student.Info{}, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return student.Info{}, fmt.Errorf("get student: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) Students(ctx context.Context, f Filter) ([]student.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+studentColumns+`
		 FROM students
		 WHERE ($1::text = '' OR grade = $1)
		   AND ($2::text = '' OR section = $2)
		   AND ($3::text = '' OR school = $3)
		 ORDER BY created_at, id`,
		f.Grade, f.Section, f.School,
	)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	out := []student.Info{}
	for rows.Next() {
		info, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ChildOf(ctx context.Context, parentID string) (student.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	info, err := scanStudent(s.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE parent_id = $1 ORDER BY created_at, id LIMIT 1`,
		parentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return student.Info{}, fmt.Errorf("child of parent %s: %w", parentID, ErrNotFound)
	}
	if err != nil {
		return student.Info{}, fmt.Errorf("get child: %w", err)
	}
	return info, nil
}

func (s *PostgresStore) ParentIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT parent_id FROM students
		 WHERE parent_id IS NOT NULL AND parent_id <> ''
		 GROUP BY parent_id
		 ORDER BY MIN(created_at), parent_id`)
	if err != nil {
		return nil, fmt.Errorf("query parents: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect parents: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) AddQuizResult(ctx context.Context, r student.QuizResult) (student.QuizResult, error) {
	data, err := student.EncodeSummary(r.Entries)
	if err != nil {
		return r, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TakenAt.IsZero() {
		r.TakenAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (id, student_id, summary_data, taken_at)
		 VALUES ($1, $2, $3::jsonb, $4)`,
		r.ID, r.StudentID, string(data), r.TakenAt,
	)
	if err != nil {
		return r, fmt.Errorf("insert quiz result: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) QuizResults(ctx context.Context, studentID string) ([]student.QuizResult, error) {
	return s.queryQuizzes(ctx,
		`SELECT id, student_id, summary_data::text, taken_at
		 FROM quiz_results WHERE student_id = $1 ORDER BY taken_at, id`, studentID)
}

func (s *PostgresStore) AllQuizResults(ctx context.Context) ([]student.QuizResult, error) {
	return s.queryQuizzes(ctx,
		`SELECT id, student_id, summary_data::text, taken_at
		 FROM quiz_results ORDER BY taken_at, id`)
}

// queryQuizzes skips rows whose summary no longer validates.
func (s *PostgresStore) queryQuizzes(ctx context.Context, query string, args ...any) ([]student.QuizResult, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz results: %w", err)
	}
	defer rows.Close()

	out := []student.QuizResult{}
	for rows.Next() {
		var r student.QuizResult
		var raw string
		if err := rows.Scan(&r.ID, &r.StudentID, &raw, &r.TakenAt); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		entries, err := student.DecodeSummary([]byte(raw))
		if err != nil {
			slog.Error("skipping invalid quiz result", "id", r.ID, "student_id", r.StudentID, "error", err)
			continue
		}
		r.Entries = entries
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz results: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddChatLog(ctx context.Context, l student.ChatLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_logs (id, student_id, user_message, bot_response, sent_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.StudentID, l.UserMessage, l.BotResponse, l.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ChatLogs(ctx context.Context, studentID string) ([]student.ChatLog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, user_message, bot_response, sent_at
		 FROM chat_logs WHERE student_id = $1 ORDER BY sent_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query chat logs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (student.ChatLog, error) {
		var l student.ChatLog
		err := row.Scan(&l.ID, &l.StudentID, &l.UserMessage, &l.BotResponse, &l.SentAt)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect chat logs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddActivity(ctx context.Context, a student.Activity) (student.Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO activities (id, student_id, title, description, category, time_spent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.StudentID, a.Title, nullIfEmpty(a.Description), a.Category, a.TimeSpent, a.CreatedAt,
	)
	if err != nil {
		return a, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Activities(ctx context.Context, studentID string) ([]student.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, title, COALESCE(description, ''), category, time_spent, created_at
		 FROM activities WHERE student_id = $1 ORDER BY created_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (student.Activity, error) {
		var a student.Activity
		err := row.Scan(&a.ID, &a.StudentID, &a.Title, &a.Description, &a.Category, &a.TimeSpent, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect activities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddGoal(ctx context.Context, g student.Goal) (student.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = student.GoalInProgress
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO goals (id, student_id, title, status, deadline, progress)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.StudentID, g.Title, g.Status, g.Deadline, g.Progress,
	)
	if err != nil {
		return g, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) Goals(ctx context.Context, studentID string) ([]student.Goal, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, title, status, deadline, progress
		 FROM goals WHERE student_id = $1 ORDER BY deadline NULLS LAST, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (student.Goal, error) {
		var g student.Goal
		err := row.Scan(&g.ID, &g.StudentID, &g.Title, &g.Status, &g.Deadline, &g.Progress)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect goals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddMoodLog(ctx context.Context, m student.MoodLog) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.LoggedAt.IsZero() {
		m.LoggedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO mood_logs (id, student_id, mood, logged_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.StudentID, m.Mood, m.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mood log: %w", err)
	}
	return nil
}

func (s *PostgresStore) MoodLogs(ctx context.Context, studentID string) ([]student.MoodLog, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, mood, logged_at
		 FROM mood_logs WHERE student_id = $1 ORDER BY logged_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("query mood logs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (student.MoodLog, error) {
		var m student.MoodLog
		err := row.Scan(&m.ID, &m.StudentID, &m.Mood, &m.LoggedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect mood logs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddAssignment(ctx context.Context, a student.Assignment) (student.Assignment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO assignments (id, title, grade, section, due_date, is_completed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Title, a.Grade, a.Section, a.DueDate, a.Completed,
	)
	if err != nil {
		return a, fmt.Errorf("insert assignment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Assignments(ctx context.Context, grade, section string) ([]student.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, grade, section, due_date, is_completed
		 FROM assignments WHERE grade = $1 AND section = $2 ORDER BY due_date, id`, grade, section)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (student.Assignment, error) {
		var a student.Assignment
		err := row.Scan(&a.ID, &a.Title, &a.Grade, &a.Section, &a.DueDate, &a.Completed)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect assignments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddNotification(ctx context.Context, n notify.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, parent_id, student_id, type, title, message, severity, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.ParentID, n.StudentID, n.Type, n.Title, n.Message, n.Severity, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) Notifications(ctx context.Context, parentID string, limit int) ([]notify.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, parent_id, student_id, type, title, message, severity, read, created_at
		 FROM notifications WHERE parent_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, parentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notify.Notification, error) {
		var n notify.Notification
		err := row.Scan(&n.ID, &n.ParentID, &n.StudentID, &n.Type, &n.Title, &n.Message, &n.Severity, &n.Read, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, parentID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND parent_id = $2`, id, parentID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
