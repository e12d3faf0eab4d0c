package push

import (
	"context"
	"encoding/json"
	"fmt"

	pubnubgo "github.com/pubnub/go/v7"

	"github.com/openlot-io/openlot/engineapi"
)

// PubNubConfig carries the PubNub credentials.
type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

// PubNubPublisher pushes events onto per-auction PubNub channels so bidder
// clients subscribed to an auction receive every accepted bid, war step and
// transition as it happens.
type PubNubPublisher struct {
	pn *pubnubgo.PubNub
}

var _ Publisher = (*PubNubPublisher)(nil)

func NewPubNubPublisher(cfg PubNubConfig) (*PubNubPublisher, error) {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		return nil, fmt.Errorf("pubnub: publish and subscribe keys are required")
	}

	pnCfg := pubnubgo.NewConfigWithUserId(pubnubgo.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	return &PubNubPublisher{pn: pubnubgo.NewPubNub(pnCfg)}, nil
}

func (p *PubNubPublisher) Publish(_ context.Context, ev engineapi.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pubnub: encode event: %w", err)
	}

	channel := fmt.Sprintf("auction-%s", ev.AuctionID)
	_, _, err = p.pn.Publish().
		Channel(channel).
		Message(string(payload)).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub: publish to %s: %w", channel, err)
	}
	return nil
}

func (p *PubNubPublisher) Close() error {
	p.pn.Destroy()
	return nil
}
