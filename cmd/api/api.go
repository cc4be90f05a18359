package api

import (
	"log"
	"net/http"
	"os"

	"github.com/nowijnah/aimajou-server/service/comments"
	"github.com/nowijnah/aimajou-server/service/likes"
	"github.com/nowijnah/aimajou-server/service/moderation"
	"github.com/nowijnah/aimajou-server/service/notifications"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
	mailer  notifications.Mailer
}

func NewApiServer(address string, db *gorm.DB, mailer notifications.Mailer) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		mailer:  mailer,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	gate := moderation.NewGate(s.db)
	templates := notifications.NewTemplateStore(os.Getenv("EMAIL_TEMPLATE_DIR"))
	dispatcher := notifications.NewDispatcher(s.db, s.mailer, templates, os.Getenv("APP_BASE_URL"))
	inbox := notifications.NewInbox(s.db)

	commentHandler := comments.NewCommentHandler(comments.NewStore(s.db, gate, dispatcher))
	commentHandler.RegisterRoutes(subrouter)

	likeHandler := likes.NewLikeHandler(likes.NewLedger(s.db))
	likeHandler.RegisterRoutes(subrouter)

	notificationHandler := notifications.NewNotificationHandler(dispatcher, inbox)
	notificationHandler.RegisterRoutes(subrouter)

	adminHandler := moderation.NewAdminHandler(s.db)
	adminHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.LoggingHandler(os.Stdout, cors(router)))
}
