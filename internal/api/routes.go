package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/desk"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/roster"
)

type handlers struct {
	desk   *desk.Desk
	roster roster.Directory
	log    *slog.Logger
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	v1.POST("/inquiries", h.addInquiry)
	v1.GET("/inquiries", h.queue)
	v1.GET("/inquiries/:id", h.inquiry)
	v1.POST("/inquiries/:id/assign", h.assign)
	v1.POST("/inquiries/:id/claim", h.assignToSelf)

	v1.GET("/operators", h.operators)
	v1.GET("/operators/:id/capacity", h.capacity)
	v1.PUT("/operators/:id/status", h.setOperatorStatus)
	v1.GET("/operators/:id/notifications", h.notifications)
	v1.GET("/operators/:id/escalations", h.pendingForOperator)
	v1.GET("/operators/:id/selection", h.selection)
	v1.PUT("/operators/:id/selection", h.selectChat)
	v1.DELETE("/notifications/:id", h.dismissNotification)

	v1.GET("/chats", h.chats)
	v1.GET("/chats/:id", h.chat)
	v1.GET("/chats/:id/messages", h.messages)
	v1.POST("/chats/:id/messages", h.sendMessage)
	v1.PUT("/chats/:id/status", h.updateChatStatus)
	v1.PUT("/chats/:id/priority", h.updateChatPriority)
	v1.POST("/chats/:id/resolve", h.resolve)

	v1.GET("/escalations", h.pending)
	v1.POST("/chats/:id/escalation", h.requestEscalation)
	v1.POST("/chats/:id/escalation/accept", h.acceptEscalation)
	v1.POST("/chats/:id/escalation/reject", h.rejectEscalation)

	v1.GET("/customers/:id/archive", h.history)
	v1.PUT("/customers/:id/archive/:entry/satisfaction", h.rateSatisfaction)
}

// --- inquiries ---

type addInquiryRequest struct {
	Customer desk.Customer `json:"customer"`
	Message  string        `json:"message"`
	Category string        `json:"category"`
}

func (h *handlers) addInquiry(c *gin.Context) {
	var req addInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	inq, err := h.desk.AddInquiry(req.Customer, req.Message, req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inq)
}

func (h *handlers) queue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"inquiries": h.desk.Queue()})
}

func (h *handlers) inquiry(c *gin.Context) {
	inq, ok := h.desk.Inquiry(c.Param("id"))
	if !ok {
		writeError(c, &desk.NotFoundError{Resource: "inquiry", ID: c.Param("id")})
		return
	}
	c.JSON(http.StatusOK, inq)
}

type assignRequest struct {
	OperatorID string `json:"operatorId" binding:"required"`
	Force      bool   `json:"force"`
}

func (h *handlers) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	mode := desk.AssignNormal
	if req.Force {
		mode = desk.AssignAdministrative
	}
	chat, err := h.desk.Assign(c.Param("id"), req.OperatorID, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) assignToSelf(c *gin.Context) {
	console, ok := h.console(c)
	if !ok {
		return
	}
	chat, err := console.AssignToSelf(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// --- operators ---

func (h *handlers) operators(c *gin.Context) {
	ops, err := h.roster.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operators": ops})
}

func (h *handlers) capacity(c *gin.Context) {
	cp, err := h.desk.Capacity(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handlers) setOperatorStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status := roster.Status(req.Status)
	if !status.Valid() {
		badRequest(c, "unknown operator status "+req.Status)
		return
	}
	if err := h.roster.SetStatus(c.Param("id"), status); err != nil {
		writeError(c, err)
		return
	}
	h.log.Info("operator status changed", slog.String("operator", c.Param("id")), slog.String("status", req.Status))
	c.JSON(http.StatusOK, gin.H{"operatorId": c.Param("id"), "status": status})
}

func (h *handlers) notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.desk.Notifications(c.Param("id"))})
}

func (h *handlers) pendingForOperator(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"escalations": h.desk.PendingEscalations(c.Param("id"))})
}

func (h *handlers) selection(c *gin.Context) {
	id, ok := h.desk.Selected(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"chatId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": id})
}

type selectRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

func (h *handlers) selectChat(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.desk.Select(c.Param("id"), req.ChatID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": req.ChatID})
}

func (h *handlers) dismissNotification(c *gin.Context) {
	if !h.desk.DismissNotification(c.Param("id")) {
		writeError(c, &desk.NotFoundError{Resource: "notification", ID: c.Param("id")})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- chats ---

func (h *handlers) chats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chats": h.desk.Chats(c.Query("operator"))})
}

func (h *handlers) chat(c *gin.Context) {
	chat, ok := h.desk.Chat(c.Param("id"))
	if !ok {
		writeError(c, &desk.NotFoundError{Resource: "chat", ID: c.Param("id")})
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *handlers) messages(c *gin.Context) {
	msgs, err := h.desk.Messages(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Sender  string `json:"sender"`
	AgentID string `json:"agentId"`
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sender := desk.SenderKind(req.Sender)
	if sender == "" {
		sender = desk.SenderAgent
	}
	agentID := req.AgentID
	if agentID == "" && sender == desk.SenderAgent {
		agentID = c.GetHeader(OperatorHeader)
	}
	msg, err := h.desk.SendMessage(c.Param("id"), req.Content, sender, agentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *handlers) updateChatStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	chat, err := h.desk.UpdateChatStatus(c.Param("id"), desk.ChatStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

type priorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

func (h *handlers) updateChatPriority(c *gin.Context) {
	var req priorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	chat, err := h.desk.UpdateChatPriority(c.Param("id"), desk.Priority(req.Priority))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
	Summary    string `json:"summary"`
}

func (h *handlers) resolve(c *gin.Context) {
	var req resolveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	entry, err := h.desk.ResolveChat(c.Param("id"), req.Resolution, req.Summary)
	if err != nil {
		writeError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"archived": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true, "entry": entry})
}

// --- escalations ---

func (h *handlers) pending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"escalations": h.desk.PendingEscalations(c.Query("target"))})
}

type escalationRequest struct {
	TargetOperatorID string `json:"targetOperatorId" binding:"required"`
	Reason           string `json:"reason"`
}

func (h *handlers) requestEscalation(c *gin.Context) {
	var req escalationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	requester := c.GetHeader(OperatorHeader)
	if requester == "" {
		if chat, ok := h.desk.Chat(c.Param("id")); ok {
			requester = chat.AssignedTo
		}
	}
	p, err := h.desk.RequestEscalation(requester, c.Param("id"), req.TargetOperatorID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success":          true,
		"pending":          true,
		"chatId":           p.ChatID,
		"targetOperatorId": p.TargetOperatorID,
		"requestedBy":      p.RequestedBy,
		"requestedAt":      p.RequestedAt,
	})
}

func (h *handlers) acceptEscalation(c *gin.Context) {
	var (
		chat desk.ActiveChat
		err  error
	)
	if op := c.GetHeader(OperatorHeader); op != "" {
		chat, err = h.desk.Console(op).AcceptEscalation(c.Param("id"))
	} else {
		chat, err = h.desk.AcceptEscalation(c.Param("id"))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *handlers) rejectEscalation(c *gin.Context) {
	var req rejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	var (
		n   notify.Notification
		err error
	)
	if op := c.GetHeader(OperatorHeader); op != "" {
		n, err = h.desk.Console(op).RejectEscalation(c.Param("id"), req.Reason)
	} else {
		n, err = h.desk.RejectEscalation(c.Param("id"), req.Reason)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

// --- archive ---

func (h *handlers) history(c *gin.Context) {
	entries, err := h.desk.History(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type satisfactionRequest struct {
	Score int `json:"score" binding:"required"`
}

func (h *handlers) rateSatisfaction(c *gin.Context) {
	var req satisfactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.desk.RateSatisfaction(c.Param("id"), c.Param("entry"), req.Score); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entryId": c.Param("entry"), "score": req.Score})
}

// console returns the calling operator's console, or writes 400 when the
// request does not name one.
func (h *handlers) console(c *gin.Context) (*desk.Console, bool) {
	op := c.GetHeader(OperatorHeader)
	if op == "" {
		badRequest(c, OperatorHeader+" header is required")
		return nil, false
	}
	return h.desk.Console(op), true
}
