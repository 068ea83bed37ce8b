package call

import (
	"context"
	"fmt"
	"log"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
)

// StartScreenShare grants the call's single screen share to userID. A
// current sharer is preempted: told to stop, flag cleared, and any remote
// control of their screen torn down.
func (c *Coordinator) StartScreenShare(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	p, in := s.participant(userID)
	if !in {
		return fmt.Errorf("screen share from non-participant %d: %w", userID, models.ErrForbidden)
	}

	current, held, err := c.sharers.Get(ctx, callID)
	if err != nil {
		return err
	}
	if held && current == userID {
		return nil
	}
	swapped, err := c.sharers.CompareAndSwap(ctx, callID, current, held, userID)
	if err != nil {
		return err
	}
	if !swapped {
		return fmt.Errorf("screen share of call %s changed concurrently: %w", callID, models.ErrInvalidState)
	}

	if held {
		if prev, ok := s.participant(current); ok {
			prev.ScreenSharing = false
			if err := c.fabric.Publish(ctx, fabric.ConnGroup(prev.ConnID), models.Event{
				Name: models.EventForceStopScreenShare,
				Data: ScreenSharePayload{CallID: callID, UserID: current},
			}); err != nil {
				log.Printf("call: force-stop failed call_id=%s user_id=%d: %v", callID, current, err)
			}
		}
		c.stopRemoteTargeting(ctx, s, current, "screen-share-preempted")
	}

	p.ScreenSharing = true
	c.publishUsers(ctx, s.participantIDs(), models.Event{
		Name: models.EventScreenShareStarted,
		Data: ScreenSharePayload{CallID: callID, UserID: userID},
	})
	log.Printf("call: screen share call_id=%s user_id=%d preempted=%d", callID, userID, current)
	return nil
}

// StopScreenShare releases the share if userID holds it; otherwise it does
// nothing.
func (c *Coordinator) StopScreenShare(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	current, held, err := c.sharers.Get(ctx, callID)
	if err != nil {
		return err
	}
	if !held || current != userID {
		return nil
	}
	c.releaseScreenShare(ctx, s, userID)
	return nil
}

func (c *Coordinator) releaseScreenShare(ctx context.Context, s *Session, userID int) {
	if err := c.sharers.Delete(ctx, s.ID); err != nil {
		log.Printf("call: clear screen share failed call_id=%s: %v", s.ID, err)
	}
	if p, ok := s.participant(userID); ok {
		p.ScreenSharing = false
	}
	c.publishUsers(ctx, append(s.participantIDs(), userID), models.Event{
		Name: models.EventScreenShareStopped,
		Data: ScreenSharePayload{CallID: s.ID, UserID: userID},
	})
	c.stopRemoteTargeting(ctx, s, userID, "screen-share-stopped")
}
