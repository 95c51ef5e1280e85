package store

import (
	"fmt"
	"sort"
)

type dataset struct {
	Memes map[string]Meme `json:"memes"`
	Votes map[string]Vote `json:"votes"`
	Users map[string]User `json:"users"`
}

func newDataset() *dataset {
	return &dataset{
		Memes: map[string]Meme{},
		Votes: map[string]Vote{},
		Users: map[string]User{},
	}
}

// clone copies the maps. Records are values and image bytes are never
// mutated in place, so a shallow copy of each map is enough.
func (d *dataset) clone() *dataset {
	out := newDataset()
	for k, v := range d.Memes {
		out.Memes[k] = v
	}
	for k, v := range d.Votes {
		out.Votes[k] = v
	}
	for k, v := range d.Users {
		out.Users[k] = v
	}
	return out
}

func (d *dataset) query(q Query) Result {
	var r Result
	switch {
	case q.Memes:
		for _, m := range d.Memes {
			r.Memes = append(r.Memes, m)
		}
		sort.Slice(r.Memes, func(i, j int) bool {
			if r.Memes[i].CreatedAt.Equal(r.Memes[j].CreatedAt) {
				return r.Memes[i].ID > r.Memes[j].ID
			}
			return r.Memes[i].CreatedAt.After(r.Memes[j].CreatedAt)
		})
	case q.MemeID != "":
		if m, ok := d.Memes[q.MemeID]; ok {
			r.Memes = []Meme{m}
		}
	}
	if q.VotesBy != "" {
		for _, v := range d.Votes {
			if v.UserID == q.VotesBy && (q.VoteOn == "" || v.MemeID == q.VoteOn) {
				r.Votes = append(r.Votes, v)
			}
		}
		sort.Slice(r.Votes, func(i, j int) bool { return r.Votes[i].ID < r.Votes[j].ID })
	}
	if q.UserID != "" {
		if u, ok := d.Users[q.UserID]; ok {
			r.Users = []User{u}
		}
	}
	return r
}

func (m PutMeme) apply(d *dataset) error {
	if m.Meme.ID == "" {
		return fmt.Errorf("put meme: empty id")
	}
	d.Memes[m.Meme.ID] = m.Meme
	return nil
}

func (m DeleteMeme) apply(d *dataset) error {
	if _, ok := d.Memes[m.ID]; !ok {
		return fmt.Errorf("delete meme %s: %w", m.ID, ErrNotFound)
	}
	delete(d.Memes, m.ID)
	for id, v := range d.Votes {
		if v.MemeID == m.ID {
			delete(d.Votes, id)
		}
	}
	return nil
}

func (m AdjustUpvotes) apply(d *dataset) error {
	meme, ok := d.Memes[m.MemeID]
	if !ok {
		return fmt.Errorf("adjust upvotes %s: %w", m.MemeID, ErrNotFound)
	}
	meme.UpvoteCount += m.Delta
	if meme.UpvoteCount < 0 {
		meme.UpvoteCount = 0
	}
	d.Memes[m.MemeID] = meme
	return nil
}

func (m PutVote) apply(d *dataset) error {
	if m.Vote.ID == "" {
		return fmt.Errorf("put vote: empty id")
	}
	if _, ok := d.Memes[m.Vote.MemeID]; !ok {
		return fmt.Errorf("put vote on %s: %w", m.Vote.MemeID, ErrNotFound)
	}
	d.Votes[m.Vote.ID] = m.Vote
	return nil
}

func (m DeleteVote) apply(d *dataset) error {
	if _, ok := d.Votes[m.ID]; !ok {
		return fmt.Errorf("delete vote %s: %w", m.ID, ErrNotFound)
	}
	delete(d.Votes, m.ID)
	return nil
}

func (m PutUser) apply(d *dataset) error {
	if m.User.ID == "" {
		return fmt.Errorf("put user: empty id")
	}
	d.Users[m.User.ID] = m.User
	return nil
}
