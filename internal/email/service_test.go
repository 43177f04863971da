package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/performlikemj/C2M/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	return &Service{
		redis:    rdb,
		from:     "DoNotReply@c2mmuaythai.com",
		fromName: "C2M Muay Thai",
		smtpHost: "smtp.test.com",
		smtpPort: "587",
		smtpUser: "test@example.com",
		smtpPass: "password",
		siteURL:  "https://c2mmuaythai.com",
	}
}

// queuedJob decodes the LPush payload so tests assert on the job fields
// instead of the raw JSON bytes. The payload is found by shape rather
// than position to stay independent of how the mock lays out the
// command arguments.
func queuedJob(check func(job EmailJob) error) redismock.CustomMatch {
	return func(expected, actual []interface{}) error {
		for _, arg := range actual {
			var raw []byte
			switch v := arg.(type) {
			case []byte:
				raw = v
			case string:
				raw = []byte(v)
			default:
				continue
			}
			var job EmailJob
			if err := json.Unmarshal(raw, &job); err != nil || job.To == "" {
				continue
			}
			return check(job)
		}
		return fmt.Errorf("no email job payload in LPUSH args: %v", actual)
	}
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.CustomMatch(queuedJob(func(job EmailJob) error {
		if job.To != "user@example.com" || job.Subject != "Hello" {
			return fmt.Errorf("unexpected job: %+v", job)
		}
		return nil
	})).ExpectLPush(queueKey, "job").SetVal(1)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendVerificationEmail(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.CustomMatch(queuedJob(func(job EmailJob) error {
		if !strings.Contains(job.Body, "/auth/verify/abc-123") {
			return fmt.Errorf("verification link missing from body: %q", job.Body)
		}
		if job.To != "member@example.com" {
			return fmt.Errorf("unexpected recipient %q", job.To)
		}
		return nil
	})).ExpectLPush(queueKey, "job").SetVal(1)

	svc := newTestService(db)

	err := svc.SendVerificationEmail(ctx, "member@example.com", "Member", "abc-123")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendBookingConfirmation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.CustomMatch(queuedJob(func(job EmailJob) error {
		if !strings.Contains(job.Subject, "Muay Thai Basics") {
			return fmt.Errorf("class name missing from subject %q", job.Subject)
		}
		return nil
	})).ExpectLPush(queueKey, "job").SetVal(1)

	svc := newTestService(db)

	when := time.Now().Add(24 * time.Hour)
	err := svc.SendBookingConfirmation(ctx, "user@example.com", "User", "Muay Thai Basics", when)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMembershipActivated(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.CustomMatch(queuedJob(func(job EmailJob) error {
		if !strings.Contains(job.Body, "Premium") {
			return fmt.Errorf("plan name missing from body")
		}
		return nil
	})).ExpectLPush(queueKey, "job").SetVal(1)

	svc := newTestService(db)

	err := svc.SendMembershipActivated(ctx, "user@example.com", "User", "Premium", time.Now().AddDate(0, 1, 0))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.CustomMatch(queuedJob(func(job EmailJob) error {
		return nil
	})).ExpectLPush(queueKey, "job").SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
