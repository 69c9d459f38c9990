package task

import (
	"context"
	"log"
	"study_admin_service/internal/service"
	"time"

	"github.com/robfig/cron/v3"
)

// InviteReminder periodically re-sends invitation emails to admins who have
// not activated their account yet. Expired codes are left alone; a super
// admin has to re-issue those by updating the user.
type InviteReminder struct {
	userService *service.UserService
	schedule    string
	cron        *cron.Cron
}

func NewInviteReminder(userService *service.UserService, schedule string) *InviteReminder {
	return &InviteReminder{
		userService: userService,
		schedule:    schedule,
		cron:        cron.New(),
	}
}

func (t *InviteReminder) Start() error {
	_, err := t.cron.AddFunc(t.schedule, t.run)
	if err != nil {
		return err
	}
	t.cron.Start()
	log.Printf("Invite reminder scheduled: %s", t.schedule)
	return nil
}

func (t *InviteReminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent, err := t.userService.ResendPendingInvitations(ctx)
	if err != nil {
		log.Printf("Invite reminder run failed: %v", err)
		return
	}
	if sent > 0 {
		log.Printf("Invite reminder re-sent %d invitations", sent)
	}
}

func (t *InviteReminder) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("Invite reminder stopped")
}
