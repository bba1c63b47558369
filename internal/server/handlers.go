package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/julianstephens/huddle/internal/i18n"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
)

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd service.ProfileUpdate
	if err := decode(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.UpdateProfile(r.Context(), userID(r.Context()), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	var in service.NewHabit
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.AddHabit(r.Context(), userID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabit(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := s.svc.ListHabitLogs(r.Context(), userID(r.Context()), mux.Vars(r)["id"], q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type logRequest struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

func (s *Server) handleLogHabit(w http.ResponseWriter, r *http.Request) {
	var in logRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.svc.LogHabit(r.Context(), userID(r.Context()), mux.Vars(r)["id"], in.Date, in.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleEditLog(w http.ResponseWriter, r *http.Request) {
	var in noteRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.svc.EditHabitLog(r.Context(), userID(r.Context()), mux.Vars(r)["id"], in.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabitLog(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryView struct {
	ID    string `json:"id"`
	Emoji string `json:"emoji"`
	Name  string `json:"name"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	locale := i18n.FromContext(r.Context())
	cats := service.Categories()
	out := make([]categoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryView{ID: c.ID, Emoji: c.Emoji, Name: i18n.T(locale, c.Key)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.ListGroups(r.Context(), r.URL.Query().Get("q"), i18n.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in service.NewGroup
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.CreateGroup(r.Context(), userID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.GetGroup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var upd service.GroupUpdate
	if err := decode(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.UpdateGroup(r.Context(), userID(r.Context()), mux.Vars(r)["id"], upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGroup(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.JoinGroup(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleRequestToJoin(w http.ResponseWriter, r *http.Request) {
	req, err := s.svc.RequestToJoin(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.svc.ListJoinRequests(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req, err := s.svc.RespondToJoinRequest(r.Context(), userID(r.Context()), vars["id"], vars["decision"] == "accept")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.svc.RemoveMember(r.Context(), userID(r.Context()), vars["id"], vars["userId"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.ListPosts(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type postRequest struct {
	Note     string `json:"note"`
	ImageURL string `json:"imageUrl"`
}

func (s *Server) handleAddPost(w http.ResponseWriter, r *http.Request) {
	var in postRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.AddPost(r.Context(), userID(r.Context()), mux.Vars(r)["id"], in.Note, in.ImageURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type reactRequest struct {
	Kind models.InteractionKind `json:"kind"`
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var in reactRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.React(r.Context(), userID(r.Context()), mux.Vars(r)["id"], in.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type commentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var in commentRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.Comment(r.Context(), userID(r.Context()), mux.Vars(r)["id"], in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type notificationList struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := s.svc.ListNotifications(ctx, userID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread, err := s.svc.UnreadCount(ctx, userID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notificationList{Notifications: list, UnreadCount: unread})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkNotificationRead(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.MarkAllNotificationsRead(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.svc.ListConversations(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetConversation(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type messageRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in messageRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.svc.SendMessage(r.Context(), userID(r.Context()), in.RecipientID, in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
