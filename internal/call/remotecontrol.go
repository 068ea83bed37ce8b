package call

import (
	"context"
	"fmt"
	"log"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
)

// RequestRemoteControl asks the current screen sharer to hand over control.
// Only one remote-control session, pending or granted, may exist per call.
func (c *Coordinator) RequestRemoteControl(ctx context.Context, connID string, userID int, req TargetRequest) error {
	s, err := c.session(ctx, req.CallID)
	if err != nil {
		return err
	}
	controller, in := s.participant(userID)
	if !in {
		return fmt.Errorf("remote control from non-participant %d: %w", userID, models.ErrForbidden)
	}
	if req.TargetUserID == userID {
		return fmt.Errorf("remote control of own screen: %w", models.ErrBadPayload)
	}
	sharer, held, err := c.sharers.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if !held || sharer != req.TargetUserID {
		return fmt.Errorf("user %d is not sharing in call %s: %w", req.TargetUserID, s.ID, models.ErrInvalidState)
	}

	rc := RemoteControl{ControllerID: userID, TargetID: req.TargetUserID}
	ok, err := c.remote.CompareAndSwap(ctx, s.ID, RemoteControl{}, false, rc)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("remote control already active in call %s: %w", s.ID, models.ErrInvalidState)
	}

	return c.fabric.Publish(ctx, fabric.UserGroup(rc.TargetID), models.Event{
		Name: models.EventRemoteControlRequest,
		Data: RemoteControlPayload{CallID: s.ID, ControllerID: userID, ControllerName: controller.Name, TargetID: rc.TargetID},
	})
}

// AcceptRemoteControl grants a pending request. Only the target may grant.
func (c *Coordinator) AcceptRemoteControl(ctx context.Context, connID string, userID int, callID string) error {
	rc, err := c.pendingFor(ctx, userID, callID)
	if err != nil {
		return err
	}
	next := rc
	next.Granted = true
	ok, err := c.remote.CompareAndSwap(ctx, callID, rc, true, next)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("remote control of call %s changed concurrently: %w", callID, models.ErrInvalidState)
	}

	c.publishUsers(ctx, []int{rc.ControllerID, rc.TargetID}, models.Event{
		Name: models.EventRemoteControlAccepted,
		Data: RemoteControlPayload{CallID: callID, ControllerID: rc.ControllerID, TargetID: rc.TargetID},
	})
	log.Printf("call: remote control granted call_id=%s controller=%d target=%d", callID, rc.ControllerID, rc.TargetID)
	return nil
}

// DenyRemoteControl rejects a pending request.
func (c *Coordinator) DenyRemoteControl(ctx context.Context, connID string, userID int, callID string) error {
	rc, err := c.pendingFor(ctx, userID, callID)
	if err != nil {
		return err
	}
	if err := c.remote.Delete(ctx, callID); err != nil {
		return err
	}
	return c.fabric.Publish(ctx, fabric.UserGroup(rc.ControllerID), models.Event{
		Name: models.EventRemoteControlDenied,
		Data: RemoteControlPayload{CallID: callID, ControllerID: rc.ControllerID, TargetID: rc.TargetID},
	})
}

// StopRemoteControl ends the session from either side.
func (c *Coordinator) StopRemoteControl(ctx context.Context, connID string, userID int, callID string) error {
	s, err := c.session(ctx, callID)
	if err != nil {
		return err
	}
	rc, ok, err := c.remote.Get(ctx, callID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no remote control in call %s: %w", callID, models.ErrNotFound)
	}
	if rc.ControllerID != userID && rc.TargetID != userID {
		return fmt.Errorf("user %d not part of remote control in call %s: %w", userID, callID, models.ErrForbidden)
	}
	c.teardownRemote(ctx, s, rc, "stopped")
	return nil
}

func (c *Coordinator) pendingFor(ctx context.Context, userID int, callID string) (RemoteControl, error) {
	if _, err := c.session(ctx, callID); err != nil {
		return RemoteControl{}, err
	}
	rc, ok, err := c.remote.Get(ctx, callID)
	if err != nil {
		return RemoteControl{}, err
	}
	if !ok {
		return RemoteControl{}, fmt.Errorf("no remote control request in call %s: %w", callID, models.ErrNotFound)
	}
	if rc.TargetID != userID {
		return RemoteControl{}, fmt.Errorf("user %d is not the remote control target: %w", userID, models.ErrForbidden)
	}
	if rc.Granted {
		return RemoteControl{}, fmt.Errorf("remote control in call %s already granted: %w", callID, models.ErrInvalidState)
	}
	return rc, nil
}

func (c *Coordinator) stopRemoteTargeting(ctx context.Context, s *Session, targetID int, reason string) {
	if rc, ok, _ := c.remote.Get(ctx, s.ID); ok && rc.TargetID == targetID {
		c.teardownRemote(ctx, s, rc, reason)
	}
}

func (c *Coordinator) stopRemoteInvolving(ctx context.Context, s *Session, userID int, reason string) {
	if rc, ok, _ := c.remote.Get(ctx, s.ID); ok && (rc.ControllerID == userID || rc.TargetID == userID) {
		c.teardownRemote(ctx, s, rc, reason)
	}
}

func (c *Coordinator) teardownRemote(ctx context.Context, s *Session, rc RemoteControl, reason string) {
	if err := c.remote.Delete(ctx, s.ID); err != nil {
		log.Printf("call: clear remote control failed call_id=%s: %v", s.ID, err)
	}
	c.publishUsers(ctx, []int{rc.ControllerID, rc.TargetID}, models.Event{
		Name: models.EventRemoteControlStopped,
		Data: RemoteControlPayload{CallID: s.ID, ControllerID: rc.ControllerID, TargetID: rc.TargetID, Reason: reason},
	})
	log.Printf("call: remote control stopped call_id=%s controller=%d target=%d reason=%s", s.ID, rc.ControllerID, rc.TargetID, reason)
}
