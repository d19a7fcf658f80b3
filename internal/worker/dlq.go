package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Dead jobs live in one Redis list per source queue, newest first.
const (
	DLQPrefix = "dlq:"

	// MaxDeadJobs caps each dead-letter list; older entries are trimmed.
	MaxDeadJobs = 500
)

// DLQEntry is a job that ran out of attempts. For price-list jobs the
// recipient and format are lifted out of the payload so the list can be
// scanned without decoding it.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Recipient     string          `json:"recipient,omitempty"`
	Format        string          `json:"format,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// deadEntry builds the entry for job, reading the price-list fields when
// the payload has them.
func deadEntry(queue string, job Job, reason string, now time.Time) DLQEntry {
	e := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      now.UTC(),
		Attempts:      job.Attempts,
	}
	if job.Type == JobPriceListEmail {
		var req dto.PriceListEmailRequest
		if json.Unmarshal(job.Payload, &req) == nil {
			e.Recipient = req.To
			e.Format = req.Format
			if e.Format == "" {
				e.Format = "pdf"
			}
		}
	}
	return e
}

// SendToDLQ parks a failed job and trims the list to MaxDeadJobs.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := deadEntry(queue, job, reason, time.Now())
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}

	key := DLQPrefix + queue
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, MaxDeadJobs-1)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: push failed")
		return
	}

	log.Warn().
		Str("job_type", job.Type).
		Str("recipient", entry.Recipient).
		Str("format", entry.Format).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job parked")
}

// DLQLength is the number of parked jobs for a queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQEntries returns up to n of the newest parked jobs for a queue.
// Entries that no longer decode are skipped.
func DLQEntries(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
