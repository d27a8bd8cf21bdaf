package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/mcp"
)

// MCPHandler carries MCP over HTTP: one JSON-RPC message (or batch) per POST, with the
// session named by the Mcp-Session-Id header.
type MCPHandler struct {
	server *mcp.Server
	// base is the parent of every session context; cancelling it ends all sessions.
	base context.Context
	log  *logger.Logger
}

func NewMCPHandler(base context.Context, server *mcp.Server, log *logger.Logger) *MCPHandler {
	return &MCPHandler{server: server, base: base, log: log.With("component", "mcp-handler")}
}

// Post handles POST /mcp. An initialize request opens a new session.
func (h *MCPHandler) Post(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer once the handler returns
	body := append([]byte(nil), c.Body()...)

	var sess *mcp.Session
	if mcp.PeekMethod(body) == "initialize" {
		sess = h.server.Sessions().Create(h.base, common.TransportHTTP)
		c.Set(common.HeaderSessionID, sess.ID)
		h.log.Infof("opened session %s for %s", sess.ID, c.IP())
	} else {
		id := c.Get(common.HeaderSessionID)
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing "+common.HeaderSessionID+" header")
		}
		var ok bool
		if sess, ok = h.server.Sessions().Get(id); !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown session "+id)
		}
	}

	resp := h.server.HandleMessage(sess, body)
	if resp == nil {
		return c.SendStatus(fiber.StatusAccepted)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(resp)
}

// Delete handles DELETE /mcp and cancels everything the session still has in flight.
func (h *MCPHandler) Delete(c *fiber.Ctx) error {
	id := c.Get(common.HeaderSessionID)
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing "+common.HeaderSessionID+" header")
	}
	if !h.server.Sessions().Close(id) {
		return fiber.NewError(fiber.StatusNotFound, "unknown session "+id)
	}
	h.log.Infof("closed session %s", id)
	return c.SendStatus(fiber.StatusNoContent)
}
