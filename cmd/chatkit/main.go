// Command chatkit is a terminal chat client: it joins one room, prints the
// merged timeline events as they arrive, and sends stdin lines as messages.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/collectiveminds/chatkit/internal/config"
	"github.com/collectiveminds/chatkit/internal/directory"
	"github.com/collectiveminds/chatkit/internal/session"
	"github.com/collectiveminds/chatkit/internal/transport"
)

func main() {
	room := flag.String("room", "", "room id to join")
	list := flag.Bool("list", false, "list rooms and exit")
	flag.Parse()

	cfg := config.Load()
	dir := directory.New(cfg.APIBaseURL)
	ctx := context.Background()

	if *list {
		rooms, err := dir.ListRooms(ctx)
		if err != nil {
			log.Fatalf("list rooms: %v", err)
		}
		for _, r := range rooms {
			fmt.Printf("%s\t%s\t%s\n", r.ID, r.Name, r.Topic)
		}
		return
	}

	if *room == "" {
		log.Fatal("usage: chatkit -room <id> (or -list)")
	}

	if details, err := dir.RoomDetails(ctx, *room); err == nil && details.Documentation != "" {
		fmt.Println(details.Documentation)
		fmt.Println("---")
	}

	s := session.New(dir, cfg.Username, func(roomID string, cb transport.Callbacks) session.Transport {
		tcfg := transport.Config{URL: cfg.WebSocketURL(roomID, cfg.Username)}
		if cfg.ReconnectAttempts > 0 {
			tcfg.MaxAttempts = cfg.ReconnectAttempts
		}
		return transport.New(tcfg, cb)
	})

	// Updates arrive from both the transport goroutine and local sends.
	var mu sync.Mutex
	printed := 0
	s.UpdateFunc = func(roomID string) {
		mu.Lock()
		defer mu.Unlock()
		msgs := s.Messages(roomID)
		for ; printed < len(msgs); printed++ {
			m := msgs[printed]
			fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), m.Sender.Name, m.Content)
		}
	}

	s.ConnectToRoom(ctx, *room)
	defer s.DisconnectFromRoom()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		s.SendMessage(*room, line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin: %v", err)
	}
}
