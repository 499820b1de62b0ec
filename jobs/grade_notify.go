package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GradeNotifyJob resolves the student behind a freshly graded enrollment and
// hands a notification email to the mail queue.
type GradeNotifyJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	client *Client
}

// NewGradeNotifyJob constructs the job.
func NewGradeNotifyJob(pool *pgxpool.Pool, logger *slog.Logger, client *Client) *GradeNotifyJob {
	return &GradeNotifyJob{pool: pool, logger: logger, client: client}
}

// Handle processes TaskTypeGradeRecorded tasks.
func (j *GradeNotifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GradeRecordedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	var email, firstName string
	err := j.pool.QueryRow(ctx, `
		SELECT u.email, u.first_name
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`, payload.StudentProfileID,
	).Scan(&email, &firstName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Profile vanished between grading and notification; nothing to do.
			return nil
		}
		return err
	}

	if j.client == nil {
		if j.logger != nil {
			j.logger.Info("grade recorded",
				slog.Int64("enrollment_id", payload.EnrollmentID),
				slog.String("student", email))
		}
		return nil
	}

	_, err = j.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Grade posted for %s", payload.SectionCode),
		Body:    fmt.Sprintf("Hi %s, a grade of %.2f was posted for your enrollment in %s.", firstName, payload.Grade, payload.SectionCode),
	})
	return err
}
