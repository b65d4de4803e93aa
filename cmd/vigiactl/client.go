package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const defaultAddr = "localhost:8600"

// client fala com o daemon pela API v1. Todo erro da API volta como
// "CODE: mensagem" para o usuário do terminal.
type client struct {
	addr string
	key  string
	http *http.Client
}

func newClient() *client {
	a := addr
	if a == "" {
		a = os.Getenv("VIGIA_ADDR")
	}
	if a == "" {
		a = defaultAddr
	}

	k := apiKey
	if k == "" {
		k = os.Getenv("API_KEY")
	}

	return &client{
		addr: a,
		key:  k,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope espelha o formato dos eventos no stream e no journal.
type envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, "http://"+c.addr+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon at %s: %w", c.addr, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Code != "" {
			return fmt.Errorf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *client) get(path string, out any) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *client) post(path string, payload, out any) error {
	return c.do(http.MethodPost, path, payload, out)
}

// dialEvents abre o stream websocket de eventos do daemon.
func (c *client) dialEvents() (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/v1/events/ws"}

	header := http.Header{}
	if c.key != "" {
		header.Set("Authorization", "Bearer "+c.key)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}
