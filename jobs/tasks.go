package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeGradeRecorded is enqueued after a successful grade stamp so the
	// student can be notified out of band.
	TaskTypeGradeRecorded = "grade:recorded"
	// TaskTypeEnrollmentDigest is the nightly ungraded-enrollment summary.
	TaskTypeEnrollmentDigest = "enrollment:digest"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands with the notification rollout.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// GradeRecordedPayload identifies a freshly stamped grade.
type GradeRecordedPayload struct {
	EnrollmentID      int64   `json:"enrollment_id"`
	StudentProfileID  int64   `json:"student_profile_id"`
	SectionCode       string  `json:"section_code"`
	Grade             float64 `json:"grade"`
	GradedByProfileID int64   `json:"graded_by_profile_id"`
}

// NewGradeRecordedTask constructs an Asynq task.
func NewGradeRecordedTask(payload GradeRecordedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGradeRecorded, data), nil
}

// NewEnrollmentDigestTask constructs the scheduler task for the digest cron.
func NewEnrollmentDigestTask() *asynq.Task {
	return asynq.NewTask(TaskTypeEnrollmentDigest, nil)
}
