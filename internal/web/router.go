// Package web serves the local dashboard: a JSON facade over the
// marketplace SDK, with the route guard between the session state and
// every protected view.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/guard"
	"github.com/sunwoojg/carelink/internal/client/session"
	"github.com/sunwoojg/carelink/internal/logging"
)

// NewRouter assembles the dashboard http.Handler.
func NewRouter(client *api.Client, sess *session.Controller, log logging.Logger) http.Handler {
	root := chi.NewRouter()

	root.Use(
		Recover(log),
		RequestID(),
		Logging(log),
	)

	h := NewHandlers(client, sess, log)

	// Public surface: health, the redirect targets, and the session
	// transitions themselves.
	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Get(guard.LoginPath, h.LoginInfo)
	root.Get(guard.ForbiddenPath, h.Forbidden)
	root.Get("/api/session", h.Session)
	root.Post("/api/login", h.Login)
	root.Post("/api/logout", h.Logout)

	// Protected surface: any authenticated role.
	root.Group(func(r chi.Router) {
		r.Use(guard.Middleware(sess, ""))

		r.Get("/api/qna", h.ListQuestions)
		r.Post("/api/qna", h.CreateQuestion)
		r.Get("/api/qna/{id}", h.GetQuestion)
		r.Post("/api/qna/answers/{id}/like", h.LikeAnswer)

		r.Get("/api/columns", h.ListColumns)
		r.Get("/api/columns/{id}", h.GetColumn)
		r.Post("/api/columns/{id}/read", h.ReadColumn)
		r.Post("/api/columns/{id}/like", h.LikeColumn)

		r.Get("/api/experts", h.ListExperts)
		r.Get("/api/experts/{id}", h.GetExpert)
		r.Get("/api/experts/{id}/slots", h.ExpertSlots)

		r.Get("/api/consultations", h.ListConsultations)
		r.Post("/api/consultations", h.Book)
		r.Post("/api/consultations/{id}/cancel", h.CancelConsultation)

		r.Get("/api/wallet/balance", h.WalletBalance)
		r.Get("/api/wallet/transactions", h.WalletTransactions)
		r.Post("/api/wallet/purchase", h.PurchaseTokens)

		r.Get("/api/chat/rooms", h.ListRooms)
		r.Get("/api/chat/rooms/{id}/messages", h.RoomMessages)
		r.Post("/api/chat/rooms/{id}/messages", h.SendMessage)
		r.Post("/api/chat/rooms/{id}/read", h.MarkRoomRead)
	})

	// Expert-only surface: answering questions.
	root.Group(func(r chi.Router) {
		r.Use(guard.Middleware(sess, api.RoleExpert))

		r.Post("/api/qna/{id}/answers", h.CreateAnswer)
	})

	return root
}
