package app

import (
	"gorm.io/gorm"

	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/repos"
)

type Repos struct {
	Profile     repos.ProfileRepo
	Pet         repos.PetRepo
	Comment     repos.CommentRepo
	Chat        repos.ChatRepo
	Participant repos.ParticipantRepo
	Message     repos.MessageRepo
	ReadReceipt repos.ReadReceiptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:     repos.NewProfileRepo(db, log),
		Pet:         repos.NewPetRepo(db, log),
		Comment:     repos.NewCommentRepo(db, log),
		Chat:        repos.NewChatRepo(db, log),
		Participant: repos.NewParticipantRepo(db, log),
		Message:     repos.NewMessageRepo(db, log),
		ReadReceipt: repos.NewReadReceiptRepo(db, log),
	}
}
