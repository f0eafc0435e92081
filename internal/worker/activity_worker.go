package worker

import (
	"github.com/spec-kit/helpdesk-tracker/internal/service"
)

// StartActivityWorker registers the activity log subscriber.
func StartActivityWorker(activityLog *service.ActivityLog) {
	if activityLog == nil {
		return
	}
	activityLog.Register()
}
