package mocks

import (
	"context"
	"sort"
	"sync"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// Directory is an in-memory users + channels store for scenario tests. It
// satisfies both repositories.UserRepository and
// repositories.ChannelRepository.
type Directory struct {
	mu       sync.Mutex
	users    map[int]models.User
	tokens   map[int][]string
	channels map[int]models.Channel
	members  map[int][]int
	Updates  []models.Presence
}

func NewDirectory() *Directory {
	return &Directory{
		users:    make(map[int]models.User),
		tokens:   make(map[int][]string),
		channels: make(map[int]models.Channel),
		members:  make(map[int][]int),
	}
}

func (d *Directory) AddUser(id int, name string, tokens ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id] = models.User{ID: id, Name: name}
	d.tokens[id] = tokens
}

func (d *Directory) AddChannel(id int, name string, members ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[id] = models.Channel{ID: id, Name: name}
	d.members[id] = members
}

func (d *Directory) Exists(_ context.Context, userID int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.users[userID]
	return ok, nil
}

func (d *Directory) GetUser(_ context.Context, userID int) (models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return u, nil
}

func (d *Directory) UpdatePresence(_ context.Context, p models.Presence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[p.UserID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsOnline, u.IsAway, u.LastSeen = p.IsOnline, p.IsAway, p.LastSeen
	d.users[p.UserID] = u
	d.Updates = append(d.Updates, p)
	return nil
}

func (d *Directory) ListPresence(_ context.Context) ([]models.Presence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Presence, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, models.Presence{UserID: u.ID, IsOnline: u.IsOnline, IsAway: u.IsAway, LastSeen: u.LastSeen})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (d *Directory) PushTokens(_ context.Context, userIDs []int) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, id := range userIDs {
		out = append(out, d.tokens[id]...)
	}
	return out, nil
}

func (d *Directory) MarkAllOffline(context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n int64
	for id, u := range d.users {
		if u.IsOnline {
			u.IsOnline, u.IsAway = false, false
			d.users[id] = u
			n++
		}
	}
	return n, nil
}

func (d *Directory) GetChannel(_ context.Context, channelID int) (models.Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.channels[channelID]
	if !ok {
		return models.Channel{}, repositories.ErrChannelNotFound
	}
	return ch, nil
}

func (d *Directory) MemberIDs(_ context.Context, channelID int) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[channelID]; !ok {
		return nil, repositories.ErrChannelNotFound
	}
	return append([]int(nil), d.members[channelID]...), nil
}

func (d *Directory) ChannelIDsForUser(_ context.Context, userID int) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []int
	for id, members := range d.members {
		for _, m := range members {
			if m == userID {
				out = append(out, id)
				break
			}
		}
	}
	sort.Ints(out)
	return out, nil
}
