package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080"`
	Username  string `envconfig:"CHAT_USERNAME"`
	Password  string `envconfig:"CHAT_PASSWORD"`
	// CHAT_COLOURS enables colorized output for better readability.
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type messageEvent struct {
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, shows the user directory, opens the WebSocket and bridges
// stdin lines ("<recipient-id> <message>") to the server until Ctrl+C.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.Username == "" || config.Password == "" {
		return exitConfig, fmt.Errorf("CHAT_USERNAME and CHAT_PASSWORD are required")
	}
	color.Enable = config.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := login(config)
	if err != nil {
		return exitRuntime, err
	}
	color.Green.Printf(">>> Logged in as %s (%s)\n", token.Username, token.UserID)

	if err := printUserDirectory(config, token.AccessToken); err != nil {
		return exitRuntime, err
	}

	conn, err := dial(config, token.AccessToken)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Incoming messages, printed as they arrive.
	go receiveLoop(ctx, conn)

	color.Cyan.Println(`>>> Type "<recipient-id> <message>" and press enter (Ctrl+C to quit)`)
	go sendLoop(conn)

	<-ctx.Done()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return exitOK, nil
}

func login(config Config) (tokenResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"username": config.Username,
		"password": config.Password,
	})

	resp, err := http.Post(config.ServerURL+"/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tokenResponse{}, fmt.Errorf("login rejected: %s", resp.Status)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return tokenResponse{}, err
	}
	return token, nil
}

// printUserDirectory renders the registered users so the operator can
// pick a recipient id.
func printUserDirectory(config Config, accessToken string) error {
	req, err := http.NewRequest(http.MethodGet, config.ServerURL+"/users", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var users []userResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Username"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, user := range users {
		table.Append([]string{user.ID, user.Username})
	}
	table.Render()
	return nil
}

func dial(config Config, accessToken string) (*websocket.Conn, error) {
	wsURL := strings.Replace(config.ServerURL, "http", "ws", 1) +
		"/ws?token=" + url.QueryEscape(accessToken)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	return conn, err
}

func receiveLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var evt messageEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() == nil {
				color.Red.Printf("connection lost: %v\n", err)
			}
			return
		}
		if evt.Error != "" {
			color.Red.Printf("server: %s\n", evt.Error)
			continue
		}
		color.Yellow.Printf("[%s] %s: %s\n",
			evt.CreatedAt.Format(time.TimeOnly), evt.SenderID, evt.Content)
	}
}

func sendLoop(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		recipient, content, found := strings.Cut(line, " ")
		if !found {
			color.Red.Println("usage: <recipient-id> <message>")
			continue
		}
		frame, _ := json.Marshal(map[string]string{
			"recipient_id": recipient,
			"content":      content,
		})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			color.Red.Printf("send failed: %v\n", err)
			return
		}
	}
}
