package main

import (
	"flag"
	"log"
	"net/http"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	srv := NewServer()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWebSocket)

	log.Printf("sheetserve: listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("sheetserve: %v", err)
	}
}
