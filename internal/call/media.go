package call

import (
	"context"
	"encoding/json"
	"fmt"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
)

// Relay forwards a webrtc-offer, webrtc-answer or ice-candidate payload
// verbatim to the target participant's connection. A target that has not
// joined yet gets it on every device.
func (c *Coordinator) Relay(ctx context.Context, connID string, userID int, name string, req TargetRequest, raw json.RawMessage) error {
	s, err := c.session(ctx, req.CallID)
	if err != nil {
		return err
	}
	if _, in := s.participant(userID); !in {
		return fmt.Errorf("relay %s from non-participant %d: %w", name, userID, models.ErrForbidden)
	}
	if req.TargetUserID == userID || req.TargetUserID <= 0 {
		return fmt.Errorf("relay %s target %d: %w", name, req.TargetUserID, models.ErrBadPayload)
	}

	var group string
	switch target, in := s.participant(req.TargetUserID); {
	case in:
		group = fabric.ConnGroup(target.ConnID)
	case s.isInvited(req.TargetUserID) || s.hasAccepted(req.TargetUserID):
		group = fabric.UserGroup(req.TargetUserID)
	default:
		return fmt.Errorf("relay %s target %d not in call %s: %w", name, req.TargetUserID, s.ID, models.ErrNotFound)
	}
	return c.fabric.Publish(ctx, group, models.Event{Name: name, From: userID, Data: raw})
}

// ToggleAudio mirrors a participant's microphone state to the others.
func (c *Coordinator) ToggleAudio(ctx context.Context, connID string, userID int, req ToggleRequest) error {
	return c.toggle(ctx, connID, userID, req, models.EventToggleAudio)
}

// ToggleVideo mirrors a participant's camera state to the others.
func (c *Coordinator) ToggleVideo(ctx context.Context, connID string, userID int, req ToggleRequest) error {
	return c.toggle(ctx, connID, userID, req, models.EventToggleVideo)
}

func (c *Coordinator) toggle(ctx context.Context, connID string, userID int, req ToggleRequest, name string) error {
	s, err := c.session(ctx, req.CallID)
	if err != nil {
		return err
	}
	p, in := s.participant(userID)
	if !in {
		return fmt.Errorf("%s from non-participant %d: %w", name, userID, models.ErrForbidden)
	}
	if name == models.EventToggleAudio {
		p.AudioEnabled = req.Enabled
	} else {
		p.VideoEnabled = req.Enabled
	}
	c.publishUsers(ctx, s.participantIDs(), models.Event{
		Name: name,
		Data: TogglePayload{CallID: s.ID, UserID: userID, Enabled: req.Enabled},
	}, connID)
	return nil
}

// releaseMedia drops the screen share and any remote-control session held
// by a departing participant.
func (c *Coordinator) releaseMedia(ctx context.Context, s *Session, userID int) {
	if sharer, ok, _ := c.sharers.Get(ctx, s.ID); ok && sharer == userID {
		c.releaseScreenShare(ctx, s, userID)
	}
	c.stopRemoteInvolving(ctx, s, userID, "participant-left")
}
