// Package feedserver serves the meme feed over HTTP and pushes live updates
// to websocket clients.
package feedserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/memesmith/internal/feed"
	"github.com/example/memesmith/internal/store"
)

// Entry is the JSON form of a feed item. Image bytes are served separately.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	TimeAgo     string    `json:"timeAgo"`
	UpvoteCount int       `json:"upvoteCount"`
	Upvoted     bool      `json:"upvoted"`
	ImageURL    string    `json:"imageUrl"`
}

// Server exposes a feed.Manager.
type Server struct {
	feed     *feed.Manager
	now      func() time.Time
	upgrader websocket.Upgrader
}

// New returns a server for m.
func New(m *feed.Manager) *Server {
	return &Server{
		feed: m,
		now:  time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler routes:
//
//	GET /api/memes?sort=recent|popular&user=ID
//	GET /api/memes/{id}/image
//	GET /ws?sort=...&user=ID
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/memes", s.list)
	mux.HandleFunc("GET /api/memes/{id}/image", s.image)
	mux.HandleFunc("GET /ws", s.live)
	return mux
}

func (s *Server) entries(items []feed.Item) []Entry {
	now := s.now()
	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = Entry{
			ID:          it.ID,
			Title:       it.Title,
			Author:      it.Author(),
			CreatedAt:   it.CreatedAt,
			TimeAgo:     feed.TimeAgo(it.CreatedAt, now),
			UpvoteCount: it.UpvoteCount,
			Upvoted:     it.Upvoted,
			ImageURL:    fmt.Sprintf("/api/memes/%s/image", it.ID),
		}
	}
	return out
}

func params(r *http.Request) (feed.Sort, string, error) {
	q := r.URL.Query()
	sort, err := feed.ParseSort(q.Get("sort"))
	return sort, q.Get("user"), err
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	sort, user, err := params(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.feed.List(r.Context(), user, sort)
	if err != nil {
		log.Printf("feed list: %v", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.entries(items)); err != nil {
		log.Printf("feed list: %v", err)
	}
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	m, err := s.feed.Meme(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("meme image: %v", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(m.Image))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(m.Image)
}

// live upgrades to a websocket and sends the whole feed as JSON after every
// change until the client goes away.
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	sort, user, err := params(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sub, err := s.feed.Watch(ctx, user, sort, func(items []feed.Item) {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(s.entries(items)); err != nil {
			log.Printf("websocket write: %v", err)
			cancel()
		}
	})
	if err != nil {
		log.Printf("feed watch: %v", err)
		return
	}
	defer sub.Cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	<-ctx.Done()
}
