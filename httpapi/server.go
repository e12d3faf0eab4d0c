// Package httpapi exposes the engine over REST and a websocket event stream.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/openlot-io/openlot/engine"
	"github.com/openlot-io/openlot/push"
)

type Server struct {
	echo   *echo.Echo
	engine *engine.Engine
	hub    *push.WSHub
	log    *zap.Logger
}

func NewServer(eng *engine.Engine, hub *push.WSHub, log *zap.Logger) *Server {
	s := &Server{
		echo:   echo.New(),
		engine: eng,
		hub:    hub,
		log:    log,
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.echo.Group("/api/v1")

	api.POST("/auctions", s.createAuction)
	api.GET("/auctions", s.listAuctions)
	api.GET("/auctions/:id", s.getAuction)
	api.POST("/auctions/:id/lots", s.addLot)
	api.POST("/auctions/:id/open-pre-bids", s.openPreBids)
	api.POST("/auctions/:id/schedule", s.schedule)
	api.POST("/auctions/:id/start", s.start)
	api.POST("/auctions/:id/end", s.end)
	api.POST("/auctions/:id/cancel", s.cancel)

	api.GET("/lots/:id", s.getLot)
	api.POST("/lots/:id/bids", s.placeBid)
	api.GET("/lots/:id/bids", s.bidHistory)
	api.GET("/lots/:id/ranking", s.ranking)
	api.DELETE("/lots/:id/bids/:bidID", s.invalidateBid)

	if s.hub != nil {
		s.echo.GET("/ws", s.serveWS)
	}
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// writeError maps engine sentinels onto HTTP statuses. Anything unknown is a
// 500 and gets logged; the sentinel cases are expected traffic.
func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody(err))
	case errors.Is(err, engine.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorBody(err))
	case errors.Is(err, engine.ErrStateConflict):
		return c.JSON(http.StatusConflict, errorBody(err))
	default:
		s.log.Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
