// Command devserver runs the in-memory chat backend locally so the client
// can be exercised without a real deployment.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/collectiveminds/chatkit/internal/devserver"
	"github.com/collectiveminds/chatkit/internal/domain"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	backend := devserver.New()
	backend.AddRoom(domain.RoomDetails{
		Room:          domain.Room{ID: "general", Name: "General", Topic: "Anything goes", CreatedBy: "Admin"},
		Documentation: "# General\nOpen discussion room.",
	})
	backend.AddUser(domain.User{ID: "admin", Name: "Admin", Online: true})

	log.Printf("devserver listening on %s", *addr)
	if err := http.ListenAndServe(*addr, backend.Handler()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
