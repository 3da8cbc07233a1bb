package services

import (
	"context"

	"cfss-backend/models"
	"cfss-backend/utils"

	"github.com/sirupsen/logrus"
)

// Activity event contexts and names.
const (
	ContextWind       = "cfss-wind"
	ContextRevision   = "revision"
	ContextReport     = "report"
	ContextBulkVerify = "bulk-verify"
	ContextProject    = "project"

	EventGroupFloors   = "group_floors"
	EventUngroupFloors = "ungroup_floors"
	EventUpdateWind    = "update_wind_data"
	EventAddRevision   = "add_revision"
	EventGenerate      = "generate_report"
	EventVerify        = "verify_documents"
	EventSaveProject   = "save_project"
)

// ActivityStore persists activity log rows.
type ActivityStore interface {
	SaveActivityLog(ctx context.Context, log *models.ActivityLogGorm) error
}

// Activity is one user action worth an audit row.
type Activity struct {
	User        models.UserInfo
	ProjectID   string
	Context     string
	Event       string
	Description string
	HostName    string
	IPAddress   string
}

// ActivityRecorder writes activity rows on a best-effort basis: failures are
// logged and never returned.
type ActivityRecorder struct {
	store ActivityStore
}

func NewActivityRecorder(store ActivityStore) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

func (a *ActivityRecorder) Record(ctx context.Context, act Activity) {
	if a == nil || a.store == nil {
		return
	}
	row := &models.ActivityLogGorm{
		UserEmail:    act.User.Email,
		HostName:     act.HostName,
		IPAddress:    act.IPAddress,
		EventContext: act.Context,
		EventName:    act.Event,
		Description:  act.Description,
		ProjectID:    act.ProjectID,
	}
	if err := a.store.SaveActivityLog(context.WithoutCancel(ctx), row); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"project_id": act.ProjectID,
			"event":      act.Event,
		}).Warn("activity log not saved")
	}
}
