package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chadiek/followup-call/internal/agent"
)

// Server exposes the call orchestrator over HTTP and WebSocket.
type Server struct {
	orch *agent.Orchestrator
	echo *echo.Echo
}

// New constructs the HTTP server with routes.
func New(orch *agent.Orchestrator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{orch: orch, echo: e}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/call/start", s.handleStart)
	e.POST("/call/utterance", s.handleUtterance)
	e.POST("/call/end", s.handleEnd)
	e.GET("/call/state", s.handleState)
	e.GET("/call/stream", s.handleStream)

	return s
}

// Router returns the handler for an http.Server.
func (s *Server) Router() http.Handler { return s.echo }

type errorResponse struct {
	Error string `json:"error"`
}

type startResponse struct {
	CustomerID string `json:"customer_id"`
	Customer   string `json:"customer"`
	Greeting   string `json:"greeting"`
}

type utteranceRequest struct {
	Text string `json:"text"`
}

type utteranceResponse struct {
	Reply string `json:"reply"`
	State string `json:"state"`
}

type stateResponse struct {
	State      string `json:"state"`
	CustomerID string `json:"customer_id,omitempty"`
}

// statusFor maps orchestrator errors onto HTTP status codes. Lifecycle misuse
// is a conflict, an empty database is unavailability, anything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrCallActive),
		errors.Is(err, agent.ErrNoActiveCall),
		errors.Is(err, agent.ErrNotAwaitingInput):
		return http.StatusConflict
	case errors.Is(err, agent.ErrNoCustomers):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStart(c echo.Context) error {
	greeting, err := s.orch.Start()
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}
	customer, _ := s.orch.Customer()
	return c.JSON(http.StatusOK, startResponse{
		CustomerID: customer.CustomerID,
		Customer:   customer.Name,
		Greeting:   greeting,
	})
}

func (s *Server) handleUtterance(c echo.Context) error {
	var req utteranceRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "missing utterance text"})
	}
	reply, err := s.orch.SubmitUtterance(c.Request().Context(), req.Text)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, utteranceResponse{
		Reply: reply,
		State: s.orch.State().String(),
	})
}

func (s *Server) handleEnd(c echo.Context) error {
	result, err := s.orch.End()
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleState(c echo.Context) error {
	resp := stateResponse{State: s.orch.State().String()}
	if customer, ok := s.orch.Customer(); ok {
		resp.CustomerID = customer.CustomerID
	}
	return c.JSON(http.StatusOK, resp)
}
