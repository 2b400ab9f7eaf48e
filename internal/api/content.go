package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialclient/internal/models"
)

const (
	fallbackLoad = "Ошибка загрузки"
	fallbackSend = "Ошибка отправки"
)

type contentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.remote.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) userPosts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	posts, err := h.remote.UserPosts(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

func (h *Handler) feed(c *gin.Context) {
	posts, err := h.remote.Feed(c.Request.Context())
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

// home loads everything the start screen shows in one round trip.
func (h *Handler) home(c *gin.Context) {
	user := sessionUser(c)
	var (
		posts         []models.Post
		notifications []models.Notification
		chats         []models.Chat
	)
	batch := h.pool.NewBatch(c.Request.Context())
	batch.Go("feed", func(ctx context.Context) (err error) {
		posts, err = h.remote.Feed(ctx)
		return err
	})
	batch.Go("notifications", func(ctx context.Context) (err error) {
		notifications, err = h.remote.Notifications(ctx, user.ID)
		return err
	})
	batch.Go("chats", func(ctx context.Context) (err error) {
		chats, err = h.remote.Chats(ctx, user.ID)
		return err
	})
	if err := batch.Wait(); err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"posts":         posts,
		"notifications": notifications,
		"chats":         chats,
		"unread_count":  unread,
	})
}

func (h *Handler) createPost(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	post, err := h.remote.CreatePost(c.Request.Context(), sessionUser(c).ID, req.Content)
	if err != nil {
		h.fail(c, err, "Ошибка публикации")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

func (h *Handler) likePost(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.remote.LikePost(c.Request.Context(), sessionUser(c).ID, postID)
	if err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) commentPost(c *gin.Context) {
	postID, ok := pathID(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	comment, err := h.remote.CommentPost(c.Request.Context(), sessionUser(c).ID, postID, req.Content)
	if err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment_id": comment.CommentID})
}

func (h *Handler) listChats(c *gin.Context) {
	chats, err := h.remote.Chats(c.Request.Context(), sessionUser(c).ID)
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

type createChatRequest struct {
	WithUserID int64 `json:"with_user_id"`
}

func (h *Handler) createChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.WithUserID <= 0 {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user := sessionUser(c)
	if req.WithUserID == user.ID {
		respondError(c, http.StatusBadRequest, "cannot start a chat with yourself")
		return
	}
	chatID, err := h.remote.CreateChat(c.Request.Context(), user.ID, req.WithUserID)
	if err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chat_id": chatID})
}

func (h *Handler) listMessages(c *gin.Context) {
	chatID, ok := pathID(c)
	if !ok {
		return
	}
	messages, err := h.remote.Messages(c.Request.Context(), chatID, sessionUser(c).ID)
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

func (h *Handler) sendMessage(c *gin.Context) {
	chatID, ok := pathID(c)
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	sent, err := h.remote.SendMessage(c.Request.Context(), sessionUser(c).ID, chatID, req.Content)
	if err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message_id": sent.MessageID, "created_at": sent.CreatedAt})
}

func (h *Handler) listNotifications(c *gin.Context) {
	notifications, err := h.remote.Notifications(c.Request.Context(), sessionUser(c).ID)
	if err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

func (h *Handler) markRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.remote.MarkNotificationRead(c.Request.Context(), id); err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusOK, models.OK())
}

func (h *Handler) markAllRead(c *gin.Context) {
	if err := h.remote.MarkAllNotificationsRead(c.Request.Context(), sessionUser(c).ID); err != nil {
		h.fail(c, err, fallbackSend)
		return
	}
	c.JSON(http.StatusOK, models.OK())
}
