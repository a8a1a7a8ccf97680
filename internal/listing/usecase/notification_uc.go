package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
)

// NotificationUsecase emails owners about their listings.
type NotificationUsecase struct {
	users  domain.UserDirectory
	mailer Mailer
	logger *logger.Logger
}

func NewNotificationUsecase(users domain.UserDirectory, mailer Mailer, log *logger.Logger) *NotificationUsecase {
	return &NotificationUsecase{users: users, mailer: mailer, logger: log}
}

func (uc *NotificationUsecase) HandleListingCreated(ctx context.Context, event domain.ListingEvent) error {
	email, err := uc.users.GetEmailByID(ctx, event.UserID)
	if err != nil {
		uc.logger.Warn("NotificationUsecase.HandleListingCreated: owner email not resolved",
			"user_id", event.UserID, "listing_id", event.ListingID, "error", err.Error())
		return err
	}
	if email == "" {
		uc.logger.Info("NotificationUsecase.HandleListingCreated: owner has no email, skipping", "user_id", event.UserID)
		return nil
	}

	title := event.Name
	if title == "" {
		title = event.ListingID
	}
	subject := "New Listing Created"
	body := fmt.Sprintf("Your %s listing '%s' has been created successfully with %d image(s) and %d video(s).",
		event.ListingType, title, event.ImageCount, event.VideoCount)
	if err := uc.mailer.SendEmail(email, subject, body); err != nil {
		uc.logger.Error("NotificationUsecase.HandleListingCreated: failed to send email",
			"user_id", event.UserID, "listing_id", event.ListingID, "error", err.Error())
		return err
	}
	uc.logger.Info("NotificationUsecase.HandleListingCreated: email sent", "user_id", event.UserID, "listing_id", event.ListingID)
	return nil
}
