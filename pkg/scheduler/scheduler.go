package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs are the periodic community workflows.
type Jobs interface {
	SendBillingStatements(now time.Time) (int, error)
	ExpireVisitorPasses(now time.Time) (int, error)
}

type Scheduler struct {
	cronEngine         *cron.Cron
	jobs               Jobs
	logger             *logrus.Logger
	cronSpecStatements string
	cronSpecPassExpiry string
	now                func() time.Time
}

func New(jobs Jobs, logger *logrus.Logger, cronSpecStatements, cronSpecPassExpiry string) *Scheduler {
	return &Scheduler{
		cronEngine:         cron.New(cron.WithLocation(time.UTC)),
		jobs:               jobs,
		logger:             logger,
		cronSpecStatements: cronSpecStatements,
		cronSpecPassExpiry: cronSpecPassExpiry,
		now:                time.Now,
	}
}

// Start registers both jobs and starts the cron engine. A malformed cron
// spec is reported before anything runs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecStatements, s.RunBillingStatements); err != nil {
		return fmt.Errorf("could not add billing statements cron job: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecPassExpiry, s.RunVisitorPassExpiry); err != nil {
		return fmt.Errorf("could not add visitor pass expiry cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"billing_statements":  s.cronSpecStatements,
		"visitor_pass_expiry": s.cronSpecPassExpiry,
	}).Info("Scheduler started")
	return nil
}

// Stop stops the cron engine and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	<-s.cronEngine.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) RunBillingStatements() {
	s.logger.Info("Cron job triggered for billing statements.")
	sent, err := s.jobs.SendBillingStatements(s.now())
	if err != nil {
		s.logger.WithError(err).Error("Error during billing statement run")
		return
	}
	s.logger.WithField("sent", sent).Info("Billing statement run finished")
}

func (s *Scheduler) RunVisitorPassExpiry() {
	s.logger.Debug("Cron job triggered for visitor pass expiry.")
	expired, err := s.jobs.ExpireVisitorPasses(s.now())
	if err != nil {
		s.logger.WithError(err).Error("Error during visitor pass expiry run")
		return
	}
	s.logger.WithField("expired", expired).Debug("Visitor pass expiry run finished")
}
