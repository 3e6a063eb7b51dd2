package client

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// SocketName es el nombre del socket dentro del runtime dir
const SocketName = "tubefetch.sock"

// GetDefaultSocketPath retorna el path del socket usando XDG_RUNTIME_DIR
func GetDefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = fmt.Sprintf("/run/user/%d", os.Getuid())
	}

	return filepath.Join(runtimeDir, SocketName)
}

// Client representa un cliente del daemon
type Client struct {
	socketPath string
}

// NewClient crea un cliente con socket path personalizado
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = GetDefaultSocketPath()
	}
	return &Client{socketPath: socketPath}
}

// Request representa una petición al daemon
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Response representa una respuesta del daemon
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Download es una descarga tal como la reporta el daemon
type Download struct {
	ID              int64      `json:"id"`
	RunID           string     `json:"run_id"`
	URL             string     `json:"url"`
	Quality         string     `json:"quality"`
	OutputDir       string     `json:"output_dir"`
	Status          string     `json:"status"`
	Plan            string     `json:"plan,omitempty"`
	ResolvedQuality string     `json:"resolved_quality,omitempty"`
	OutputPath      string     `json:"output_path,omitempty"`
	Bytes           int64      `json:"bytes,omitempty"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	UserMessage     string     `json:"user_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Finished indica si la descarga llegó a un estado terminal
func (d *Download) Finished() bool {
	return d.Status == "completed" || d.Status == "failed"
}

// Send envía una petición al daemon y retorna la respuesta
func (c *Client) Send(action string, payload interface{}) (*Response, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}

	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is daemon running?)", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(&Request{Action: action, Payload: raw}); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}

// call envía la petición y decodifica Data en out
func (c *Client) call(action string, payload interface{}, out interface{}) error {
	resp, err := c.Send(action, payload)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s failed: %s", action, resp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// Ping verifica que el daemon responde
func (c *Client) Ping() error {
	return c.call("ping", nil, nil)
}

// AddResult es la respuesta de add
type AddResult struct {
	ID      int64  `json:"id"`
	RunID   string `json:"run_id"`
	Quality string `json:"quality"`
	Status  string `json:"status"`
}

// AddDownload añade una descarga a la cola
func (c *Client) AddDownload(url, quality, outputDir string) (*AddResult, error) {
	var result AddResult
	payload := map[string]string{"url": url, "quality": quality, "output_dir": outputDir}
	if err := c.call("add", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDownload obtiene el estado de una descarga
func (c *Client) GetDownload(id int64) (*Download, error) {
	var dl Download
	if err := c.call("status", map[string]int64{"id": id}, &dl); err != nil {
		return nil, err
	}
	return &dl, nil
}

// WaitDownload bloquea hasta que la descarga termine; timeout 0 espera indefinidamente
func (c *Client) WaitDownload(id int64, timeout time.Duration) (*Download, error) {
	var dl Download
	payload := map[string]int64{"id": id, "timeout_seconds": int64(timeout / time.Second)}
	if err := c.call("wait", payload, &dl); err != nil {
		return nil, err
	}
	return &dl, nil
}

// ListRecentDownloads lista las descargas recientes
func (c *Client) ListRecentDownloads(limit int) ([]Download, error) {
	var result struct {
		Downloads []Download `json:"downloads"`
	}
	if err := c.call("list", map[string]int{"limit": limit}, &result); err != nil {
		return nil, err
	}
	return result.Downloads, nil
}

// Stats retorna los contadores de la cola
func (c *Client) Stats() (map[string]int, error) {
	stats := make(map[string]int)
	if err := c.call("stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
