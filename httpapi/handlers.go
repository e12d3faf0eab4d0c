package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/openlot-io/openlot/engineapi"
)

func (s *Server) createAuction(c echo.Context) error {
	var req engineapi.CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	snap, err := s.engine.CreateAuction(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

func (s *Server) listAuctions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Auctions())
}

func (s *Server) getAuction(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	snap, err := s.engine.Auction(id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) addLot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req engineapi.AddLotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.AuctionID = id
	snap, err := s.engine.AddLot(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, snap)
}

// transition wraps the auction lifecycle endpoints, which share a shape: an
// auction ID in, a fresh snapshot out.
func (s *Server) transition(c echo.Context, apply func(ctx echo.Context, id uuid.UUID) error) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := apply(c, id); err != nil {
		return s.writeError(c, err)
	}
	snap, err := s.engine.Auction(id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) openPreBids(c echo.Context) error {
	return s.transition(c, func(c echo.Context, id uuid.UUID) error {
		return s.engine.OpenPreBids(c.Request().Context(), id)
	})
}

func (s *Server) schedule(c echo.Context) error {
	return s.transition(c, func(c echo.Context, id uuid.UUID) error {
		return s.engine.Schedule(c.Request().Context(), id)
	})
}

func (s *Server) start(c echo.Context) error {
	return s.transition(c, func(c echo.Context, id uuid.UUID) error {
		return s.engine.StartAuction(c.Request().Context(), id)
	})
}

func (s *Server) end(c echo.Context) error {
	return s.transition(c, func(c echo.Context, id uuid.UUID) error {
		return s.engine.EndAuction(c.Request().Context(), id)
	})
}

func (s *Server) cancel(c echo.Context) error {
	return s.transition(c, func(c echo.Context, id uuid.UUID) error {
		return s.engine.CancelAuction(c.Request().Context(), id)
	})
}

func (s *Server) getLot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	snap, err := s.engine.Lot(id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) placeBid(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req engineapi.PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.LotID = id

	resp, err := s.engine.PlaceBid(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	// A rejection is a domain answer, not a transport failure: still a 200.
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) bidHistory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	// Proxy ceilings are disclosed only on rows owned by this viewer.
	viewer, _ := uuid.Parse(c.QueryParam("bidder_id"))

	history, err := s.engine.BidHistory(id, viewer)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

func (s *Server) ranking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ranking, err := s.engine.RankedBids(id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, ranking)
}

func (s *Server) invalidateBid(c echo.Context) error {
	lotID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	bidID, err := pathID(c, "bidID")
	if err != nil {
		return err
	}
	if err := s.engine.InvalidateBid(c.Request().Context(), lotID, bidID); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) serveWS(c echo.Context) error {
	return s.hub.ServeWS(c.Response(), c.Request())
}
