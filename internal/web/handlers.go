package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/session"
	"github.com/sunwoojg/carelink/internal/logging"
)

// Handlers is the dashboard's handler set: a thin JSON facade over the
// API wrappers and the session controller.
type Handlers struct {
	api  *api.Client
	sess *session.Controller
	log  logging.Logger
}

func NewHandlers(client *api.Client, sess *session.Controller, log logging.Logger) *Handlers {
	return &Handlers{api: client, sess: sess, log: log}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// ---- session ----

type sessionView struct {
	State      string    `json:"state"`
	User       *api.User `json:"user,omitempty"`
	CachedUser *api.User `json:"cached_user,omitempty"`
}

// Session reports the current session snapshot. While authenticated the
// live user rides along; the cached profile is included as display
// fallback only and never implies access.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	snap := h.sess.Snapshot()
	view := sessionView{State: snap.State.String(), User: snap.User}
	if snap.User == nil {
		if cached, ok := h.sess.CachedUser(); ok {
			view.CachedUser = cached
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in api.Credentials
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	u, err := h.sess.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoginInfo answers the unauthenticated redirect target.
func (h *Handlers) LoginInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "authentication required",
		"next":    r.URL.Query().Get("next"),
	})
}

// Forbidden answers the role-mismatch redirect target.
func (h *Handlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusForbidden, errorBody{Error: "role not permitted"})
}

// ---- qna ----

func (h *Handlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.api.Questions(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handlers) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	q, err := h.api.Question(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in api.NewQuestion
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	q, err := h.api.CreateQuestion(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handlers) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var in struct {
		Body string `json:"body"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	a, err := h.api.CreateAnswer(r.Context(), id, in.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) LikeAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	a, err := h.api.LikeAnswer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ---- columns ----

func (h *Handlers) ListColumns(w http.ResponseWriter, r *http.Request) {
	f := api.ColumnFilter{ListOptions: listOptions(r), Category: r.URL.Query().Get("category")}
	cols, err := h.api.Columns(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (h *Handlers) GetColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	col, err := h.api.Column(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (h *Handlers) ReadColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	col, err := h.api.MarkColumnRead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (h *Handlers) LikeColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	col, err := h.api.LikeColumn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// ---- experts / consultations ----

func (h *Handlers) ListExperts(w http.ResponseWriter, r *http.Request) {
	s := api.ExpertSearch{
		ListOptions: listOptions(r),
		Query:       r.URL.Query().Get("q"),
		Specialty:   r.URL.Query().Get("specialty"),
	}
	experts, err := h.api.Experts(r.Context(), s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, experts)
}

func (h *Handlers) GetExpert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	e, err := h.api.Expert(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handlers) ExpertSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	from := time.Now()
	to := from.AddDate(0, 0, 14)
	slots, err := h.api.ExpertSlots(r.Context(), id, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) ListConsultations(w http.ResponseWriter, r *http.Request) {
	cons, err := h.api.MyConsultations(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cons)
}

// Book runs the booking wizard's final step. The wallet balance is
// checked first so an underfunded booking fails fast with the shortfall;
// the backend enforces the debit regardless.
func (h *Handlers) Book(w http.ResponseWriter, r *http.Request) {
	var in api.BookingRequest
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, err)
		return
	}

	expert, err := h.api.Expert(r.Context(), in.ExpertID)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.api.WalletBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if !balance.CanAfford(expert.Fee) {
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: "insufficient token balance"})
		return
	}

	booked, err := h.api.Book(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booked)
}

func (h *Handlers) CancelConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	cons, err := h.api.CancelConsultation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cons)
}

// ---- wallet ----

func (h *Handlers) WalletBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.api.WalletBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) WalletTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.api.WalletTransactions(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handlers) PurchaseTokens(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PackID string `json:"pack_id"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	b, err := h.api.PurchaseTokens(r.Context(), in.PackID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ---- chat ----

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.api.Rooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) RoomMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	p, err := h.api.Messages(r.Context(), id, r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	var in struct {
		Body string `json:"body"`
	}
	if err := decodeStrict(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}
	m, err := h.api.SendMessage(r.Context(), id, in.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handlers) MarkRoomRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return
	}
	if err := h.api.MarkRoomRead(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listOptions(r *http.Request) api.ListOptions {
	var o api.ListOptions
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		o.Page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		o.PageSize = ps
	}
	return o
}
