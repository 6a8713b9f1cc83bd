package app

import (
	"context"
	"database/sql"

	"github.com/formdesk/intake/analytics"
	"github.com/formdesk/intake/config"
	"github.com/formdesk/intake/log"
	"github.com/formdesk/intake/model"
)

// SubmissionSink receives accepted submissions. Work-order persistence and
// notification dispatch hang off this extension point; the default sink only
// logs, so nothing may assume a submission reached durable storage.
type SubmissionSink interface {
	Record(ctx context.Context, receipt model.SubmitReceipt, sub model.FormSubmission) error
}

// LogSubmissionSink is the default sink: log and drop.
type LogSubmissionSink struct{}

func (LogSubmissionSink) Record(_ context.Context, receipt model.SubmitReceipt, sub model.FormSubmission) error {
	log.Infof("submission %s accepted for form %s (org %s), %d fields",
		receipt.SubmissionID, receipt.FormID, receipt.OrgID, len(sub.Data))
	return nil
}

type App struct {
	*sql.DB
	config.Config
	Analytics *analytics.Tracker
	Sink      SubmissionSink
}
