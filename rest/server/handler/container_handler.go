package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/runner"
	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

// Service is the operation facade the handlers call. *runner.Runner implements it.
type Service interface {
	Do(ctx context.Context, req runner.Request) (runner.Result, error)
	Info(ctx context.Context) (*runner.DaemonInfo, error)
}

// ContainerHandler exposes the container operations as plain REST endpoints.
type ContainerHandler struct {
	service Service
	log     *logger.Logger
}

func NewContainerHandler(service Service, log *logger.Logger) *ContainerHandler {
	return &ContainerHandler{
		service: service,
		log:     log.With("component", "container-handler"),
	}
}

// ListContainers handles GET /api/v1/containers?all=true.
func (h *ContainerHandler) ListContainers(c *fiber.Ctx) error {
	in := runner.ListInput{}
	if raw := c.Query("all"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			return writeError(c, queryError("all", "must be a boolean, got "+strconv.Quote(raw)))
		}
		in.All = all
	}
	res, err := h.service.Do(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// GetContainerLogs handles GET /api/v1/containers/:id/logs?lines=&since=&until=&timestamps=.
func (h *ContainerHandler) GetContainerLogs(c *fiber.Ctx) error {
	errs := &validation.ValidationErrors{}
	in := runner.LogsInput{
		Container: c.Params("id"),
		Since:     c.Query("since"),
		Until:     c.Query("until"),
	}
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs.AddError("lines", "must be an integer, got "+strconv.Quote(raw))
		} else {
			in.Lines = &n
		}
	}
	if raw := c.Query("timestamps"); raw != "" {
		ts, err := strconv.ParseBool(raw)
		if err != nil {
			errs.AddError("timestamps", "must be a boolean, got "+strconv.Quote(raw))
		}
		in.Timestamps = ts
	}
	if err := runner.ValidateDecoded(in, errs); err != nil {
		return writeError(c, err)
	}

	res, err := h.service.Do(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(res.(*runner.LogsResult).Logs)
}

// InspectContainer handles GET /api/v1/containers/:id/inspect and returns the raw document.
func (h *ContainerHandler) InspectContainer(c *fiber.Ctx) error {
	res, err := h.service.Do(c.UserContext(), runner.InspectInput{Container: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(res.(*runner.InspectResult).Document)
}

// GetContainerStats handles GET /api/v1/containers/:id/stats.
func (h *ContainerHandler) GetContainerStats(c *fiber.Ctx) error {
	res, err := h.service.Do(c.UserContext(), runner.StatsInput{Container: c.Params("id")})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(res.(*runner.StatsResult).Table)
}

// ExecInContainer handles POST /api/v1/containers/:id/exec. A non-zero exit of the command
// is a 200 with the exit code in the body.
func (h *ContainerHandler) ExecInContainer(c *fiber.Ctx) error {
	var in runner.ExecInput
	if err := c.BodyParser(&in); err != nil {
		errs := &validation.ValidationErrors{}
		errs.AddError("body", "must be a JSON object: "+err.Error())
		validation.ValidateContainerIdentifier(errs, "container", c.Params("id"))
		return writeError(c, classify.FromValidation(errs))
	}
	in.Container = c.Params("id")

	res, err := h.service.Do(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	out := res.(*runner.ExecResult)
	h.log.Debugf("exec in %s exited with %d", out.Container.ShortID(), out.ExitCode)
	return c.JSON(out)
}

func queryError(path, message string) error {
	errs := &validation.ValidationErrors{}
	errs.AddError(path, message)
	return classify.FromValidation(errs)
}
