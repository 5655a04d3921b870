package app

import (
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Profile   services.ProfileService
	Pet       services.PetService
	Comment   services.CommentService
	Directory services.DirectoryService
	Message   services.MessageService
	Unread    services.UnreadService
	Assistant services.AssistantService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:      services.NewAuthService(log, r.Profile, cfg.SupabaseJWTSecret, cfg.AutoCreateProfile),
		Profile:   services.NewProfileService(db, log, r.Profile),
		Pet:       services.NewPetService(db, log, r.Pet),
		Comment:   services.NewCommentService(db, log, r.Comment),
		Directory: services.NewDirectoryService(db, log, r.Chat, r.Participant, r.Message, c.Bus),
		Message:   services.NewMessageService(db, log, r.Chat, r.Participant, r.Message, c.Bus),
		Unread:    services.NewUnreadService(db, log, r.Participant, r.Message, r.ReadReceipt),
		Assistant: services.NewAssistantService(log, c.Groq, cfg.EnableClassify, cfg.EnableVision),
	}
}
