package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/client/internal/domain/task"
	"storefront/client/internal/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Notification builds the user-facing message for a commit outcome
func Notification(added, requested int, failed []string) string {
	if len(failed) == 0 {
		if added == 1 {
			return "1 item added to cart"
		}
		return fmt.Sprintf("%d items added to cart", added)
	}
	return fmt.Sprintf("Added %d of %d items to cart; could not add: %s",
		added, requested, strings.Join(failed, ", "))
}

// RunNotifier consumes commit reports and emits the user notifications until ctx is done.
func (s *Service) RunNotifier(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return fmt.Errorf("notifier needs a queue")
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	streamName := s.queue.StreamName((&task.CommitReportTask{}).TaskType())

	var wg sync.WaitGroup

	// Picks up reports left pending by crashed consumers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.opts.MinIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%d", time.Now().UnixNano())
				claimed, err := s.queue.AutoClaim(ctx, s.opts.GroupName, consumer, streamName, s.opts.MinIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim reports from %s: %v", streamName, err)
					continue
				}
				for i := range claimed {
					if err := s.processMessage(ctx, streamName, &claimed[i]); err != nil {
						log.Errorf("❌ Failed to process auto-claimed report %s: %v", claimed[i].ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("notifier-%d", workerID)
			log.Infof("🚀 Starting notifier worker %d as consumer %s", workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 Notifier worker %d stopping", workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.opts.GroupName, consumer, streamName)
					if err != nil {
						if ctx.Err() == nil {
							log.Errorf("❌ Failed to get report from %s: %v", streamName, err)
						}
						continue
					}
					if msg == nil {
						continue
					}
					if err := s.processMessage(ctx, streamName, msg); err != nil {
						log.Errorf("❌ Failed to process report %s: %v", msg.ID, err)
					}
				}
			}
		}(i + 1)
	}

	wg.Wait()
	return nil
}

func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	taskType, data, err := queue.DecodeMessage(msg)
	if err != nil {
		log.Warnf("⚠️ Dropping malformed message %s: %v", msg.ID, err)
		return s.ack(ctx, streamName, msg.ID)
	}

	switch taskType {
	case (&task.CommitReportTask{}).TaskType():
		report, err := task.UnmarshalTask[*task.CommitReportTask](data)
		if err != nil {
			log.Warnf("⚠️ Dropping undecodable commit report %s: %v", msg.ID, err)
			break
		}
		s.notify(report)
	default:
		// Never retried: it would be auto-claimed again forever
		log.Warnf("⚠️ Dropping message %s with unknown task type %q", msg.ID, taskType)
	}

	return s.ack(ctx, streamName, msg.ID)
}

func (s *Service) ack(ctx context.Context, streamName, msgID string) error {
	if err := s.queue.AckTask(ctx, streamName, s.opts.GroupName, msgID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msgID, err)
	}
	return nil
}

func (s *Service) notify(report *task.CommitReportTask) {
	message := Notification(report.Added, report.Requested, report.FailedProducts)
	entry := log.WithFields(log.Fields{
		"commit_id":  report.CommitID,
		"product_id": report.CurrentProductID,
		"status":     report.Status,
	})

	if len(report.FailedProducts) > 0 {
		entry.Warnf("🔔 %s", message)
		return
	}
	entry.Infof("🔔 %s", message)
}
