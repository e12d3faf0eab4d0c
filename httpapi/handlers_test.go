package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openlot-io/openlot/core"
	"github.com/openlot-io/openlot/engine"
	"github.com/openlot-io/openlot/engineapi"
	"github.com/openlot-io/openlot/push"
	"github.com/openlot-io/openlot/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(store.NewMemoryStore(), push.NopPublisher{}, zap.NewNop(), engine.AuctionConfig{
		Timer: engine.TimerConfig{
			TimerSeconds:    30,
			AntiSnipeWindow: 10 * time.Second,
			ExtensionGrace:  15 * time.Second,
			MaxExtensions:   3,
		},
		MinIncrement: decimal.NewFromInt(50),
	})
	return NewServer(eng, nil, zap.NewNop())
}

func doJSON(t *testing.T, s *Server, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echoContentType, echoJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

func TestServer_AuctionLifecycle(t *testing.T) {
	s := newTestServer(t)

	var auction engineapi.AuctionSnapshot
	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/auctions",
		`{"title":"wednesday sale","start_time":"`+start+`"}`, &auction)
	assert.Equal(t, http.StatusCreated, rec.Code)
	check.Equal(t, engineapi.AuctionDraft, auction.Status)

	// Scheduling a draft is a state conflict.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auctions/"+auction.ID.String()+"/schedule", "", nil)
	check.Equal(t, http.StatusConflict, rec.Code)

	var lot engineapi.LotSnapshot
	rec = doJSON(t, s, http.MethodPost, "/api/v1/auctions/"+auction.ID.String()+"/lots",
		`{"car_id":"`+uuid.NewString()+`","start_price":"4000","reserve_price":"4800"}`, &lot)
	assert.Equal(t, http.StatusCreated, rec.Code)
	check.Equal(t, 1, lot.LotNumber)
	check.Equal(t, core.LotPreAuction, lot.Condition)

	rec = doJSON(t, s, http.MethodPost, "/api/v1/auctions/"+auction.ID.String()+"/open-pre-bids", "", &auction)
	assert.Equal(t, http.StatusOK, rec.Code)
	check.Equal(t, engineapi.AuctionReadyForPreBids, auction.Status)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/auctions/"+auction.ID.String(), "", &auction)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, len(auction.Lots))
	check.Equal(t, core.LotReadyForAuction, auction.Lots[0].Condition)
}

func TestServer_PlaceBid(t *testing.T) {
	s := newTestServer(t)

	var auction engineapi.AuctionSnapshot
	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	doJSON(t, s, http.MethodPost, "/api/v1/auctions",
		`{"title":"bids","start_time":"`+start+`"}`, &auction)

	var lot engineapi.LotSnapshot
	doJSON(t, s, http.MethodPost, "/api/v1/auctions/"+auction.ID.String()+"/lots",
		`{"car_id":"`+uuid.NewString()+`","start_price":"400"}`, &lot)
	doJSON(t, s, http.MethodPost, "/api/v1/auctions/"+auction.ID.String()+"/open-pre-bids", "", nil)

	// Pre-bid while pre-bidding is open.
	var resp engineapi.PlaceBidResponse
	rec := doJSON(t, s, http.MethodPost, "/api/v1/lots/"+lot.ID.String()+"/bids",
		`{"bidder_id":"`+uuid.NewString()+`","kind":"pre_bid","amount":"450"}`, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	check.True(t, resp.Accepted)

	// A rejection still travels as a 200 with the reason.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/lots/"+lot.ID.String()+"/bids",
		`{"bidder_id":"`+uuid.NewString()+`","kind":"live","amount":"500"}`, &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	check.False(t, resp.Accepted)
	check.Equal(t, core.RejectAuctionNotRunning, resp.Reason)

	// Unknown lot is a 404; bad ID a 400.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/lots/"+uuid.NewString()+"/bids",
		`{"bidder_id":"`+uuid.NewString()+`","kind":"live","amount":"500"}`, nil)
	check.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/lots/not-a-uuid", "", nil)
	check.Equal(t, http.StatusBadRequest, rec.Code)

	var history []engineapi.BidHistoryEntry
	rec = doJSON(t, s, http.MethodGet, "/api/v1/lots/"+lot.ID.String()+"/bids", "", &history)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, len(history))
	check.Equal(t, core.BidKindPreBid, history[0].Kind)
	check.Nil(t, history[0].ProxyMax)
	check.NotEqual(t, "", history[0].Fingerprint)
}
