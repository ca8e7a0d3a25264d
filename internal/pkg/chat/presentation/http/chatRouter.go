package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cacheport "tradechat/internal/infrastructure/cache/port"
	"tradechat/internal/infrastructure/locking"
	queueport "tradechat/internal/infrastructure/queue/port"
	"tradechat/internal/infrastructure/realtime"
	catalogport "tradechat/internal/pkg/catalog/port"
	"tradechat/internal/pkg/chat/application/usecase"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
	"tradechat/internal/pkg/chat/presentation/controller"
	directoryport "tradechat/internal/pkg/directory/port"
)

// Deps collects everything the chat endpoints need. Cache and Queue are
// optional: without them conversations simply lack product decoration.
type Deps struct {
	Repo      repository.ChatRepository
	Directory directoryport.Directory
	Catalog   catalogport.Catalog
	Cache     cacheport.Cache
	Queue     queueport.Client
	Hub       *realtime.Hub
	Logger    *zap.Logger
}

// RegisterRoutes registers chat endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	// One lock set and one fanout shared by the HTTP and socket send paths,
	// so appends to a conversation are serialized across both transports.
	locks := locking.NewKeyedMutex()
	fanout := realtime.NewFanout(deps.Hub, deps.Logger)

	startUC := usecase.NewStartConversationUseCase(deps.Repo, deps.Directory, deps.Catalog)
	listUC := usecase.NewListConversationsUseCase(deps.Repo, deps.Directory)
	getUC := usecase.NewGetConversationUseCase(deps.Repo, deps.Directory, deps.Cache)
	sendUC := usecase.NewSendMessageUseCase(deps.Repo, locks, fanout)
	messagesUC := usecase.NewGetMessagesUseCase(deps.Repo)
	markReadUC := usecase.NewMarkReadUseCase(deps.Repo)
	joinUC := usecase.NewJoinConversationUseCase(deps.Repo)

	startCtl := controller.NewStartConversationController(startUC, deps.Queue, deps.Logger)
	listCtl := controller.NewListConversationsController(listUC)
	getCtl := controller.NewGetConversationController(getUC)
	sendCtl := controller.NewSendMessageController(sendUC)
	messagesCtl := controller.NewGetMessagesController(messagesUC)
	markReadCtl := controller.NewMarkReadController(markReadUC)
	socketCtl := controller.NewChatSocketController(deps.Hub, sendUC, joinUC, deps.Logger)

	auth := controller.RequireUser()

	g.POST("/conversations", auth, startCtl.Handle())
	g.GET("/conversations", auth, listCtl.Handle())
	g.GET("/conversations/:conversationId", auth, getCtl.Handle())
	g.GET("/conversations/:conversationId/messages", auth, messagesCtl.Handle())
	g.POST("/conversations/:conversationId/messages", auth, sendCtl.Handle())
	g.POST("/conversations/:conversationId/read", auth, markReadCtl.Handle())

	g.GET("/chat/ws", auth, socketCtl.Handle())
}
