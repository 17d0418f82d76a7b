package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// A minimal mock Emby server for local development of the keeper. It speaks
// just enough of the API surface the connector exercises: name/password login,
// token-checked info and item listings, a chunked stream and the websocket
// endpoint.

var (
	username = getEnv("MOCK_USERNAME", "keeper")
	password = getEnv("MOCK_PASSWORD", "secret")

	// One token per process run; issued on login, required everywhere else.
	accessToken = uuid.New().String()
	userID      = uuid.New().String()
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func authenticated(r *http.Request) bool {
	return r.Header.Get("X-Emby-Token") == accessToken ||
		r.URL.Query().Get("api_key") == accessToken
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"Username"`
		Pw       string `json:"Pw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if creds.Username != username || creds.Pw != password {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	log.Printf("Issued token for %s", creds.Username)
	json.NewEncoder(w).Encode(map[string]any{
		"AccessToken": accessToken,
		"User":        map[string]string{"Id": userID, "Name": creds.Username},
	})
}

func handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	if !authenticated(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"ServerName": "mock-emby",
		"Version":    "4.8.0.0",
		"Id":         "mock",
	})
}

func handleItems(w http.ResponseWriter, r *http.Request) {
	if !authenticated(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"Items": []map[string]string{
			{"Id": "1", "Name": "Big Buck Bunny", "Type": "Movie", "Path": "/media/bbb.mkv"},
			{"Id": "2", "Name": "Sintel", "Type": "Movie", "Path": "/media/sintel.mkv"},
		},
		"TotalRecordCount": 2,
	})
}

func handleStream(w http.ResponseWriter, r *http.Request) {
	if !authenticated(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	chunk := make([]byte, 4096)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(time.Second):
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !authenticated(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := conn.WriteJSON(map[string]string{"MessageType": "ForceKeepAlive"}); err != nil {
			return
		}
	}
}

func main() {
	addr := getEnv("MOCK_ADDR", ":8096")

	http.HandleFunc("/Users/AuthenticateByName", handleLogin)
	http.HandleFunc("/System/Info", handleSystemInfo)
	http.HandleFunc("/Users/"+userID+"/Items", handleItems)
	http.HandleFunc("/Videos/stream", handleStream)
	http.HandleFunc("/embywebsocket", handleWebSocket)

	log.Printf("Mock Emby server listening on %s (user %s)", addr, username)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Mock Emby server failed: %v", err)
	}
}
