package app

import (
	httpH "github.com/adopaw/adopaw-backend/internal/http/handlers"
	"github.com/adopaw/adopaw-backend/internal/pkg/logger"
	"github.com/adopaw/adopaw-backend/internal/realtime"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Profile *httpH.ProfileHandler
	Pet     *httpH.PetHandler
	Comment *httpH.CommentHandler
	Chat    *httpH.ChatHandler
	Pawlo   *httpH.PawloHandler
	WS      *httpH.WSHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(),
		Profile: httpH.NewProfileHandler(s.Profile),
		Pet:     httpH.NewPetHandler(s.Pet),
		Comment: httpH.NewCommentHandler(s.Comment),
		Chat:    httpH.NewChatHandler(s.Directory, s.Message, s.Unread, hub),
		Pawlo:   httpH.NewPawloHandler(s.Assistant),
		WS:      httpH.NewWSHandler(log, hub, s.Directory, s.Message, s.Unread),
	}
}
