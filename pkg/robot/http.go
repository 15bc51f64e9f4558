package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-soccerbot/internal/httpc"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// HTTPController implements Controller against a drive node's HTTP API.
// Every request carries its own timeout, so a hung drive node surfaces as
// a retryable *TransportError instead of blocking the caller.
type HTTPController struct {
	BaseURL string
	Timeout time.Duration

	client *http.Client
}

// NewHTTPController creates a controller for the drive node at baseURL
// (e.g. "http://soccerbot.local:8090").
func NewHTTPController(baseURL string, timeout time.Duration) *HTTPController {
	if timeout <= 0 {
		timeout = httpc.DefaultTimeout
	}
	return &HTTPController{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
		client:  httpc.NewClient(timeout),
	}
}

// Drive sends a velocity/rotation command.
func (r *HTTPController) Drive(ctx context.Context, velocity, rotation int) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	body := drive.DriveRequest{Velocity: velocity, Rotation: rotation}
	if err := httpc.PostJSON(ctx, r.client, r.BaseURL+"/api/drive", body, nil); err != nil {
		return newTransportError("drive", err)
	}
	return nil
}

// Heading reads the angle turned since the previous read.
func (r *HTTPController) Heading(ctx context.Context) (drive.Heading, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var h drive.Heading
	if err := httpc.GetJSON(ctx, r.client, r.BaseURL+"/api/heading", &h); err != nil {
		return drive.Heading{}, newTransportError("heading", err)
	}
	return h, nil
}

// Mode sends a named controller command.
func (r *HTTPController) Mode(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/mode/%s", r.BaseURL, url.PathEscape(name))
	if err := httpc.PostJSON(ctx, r.client, endpoint, nil, nil); err != nil {
		return newTransportError("mode", err)
	}
	return nil
}

// Status fetches the drive node's link counters.
func (r *HTTPController) Status(ctx context.Context) (drive.StatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var st drive.StatusResponse
	if err := httpc.GetJSON(ctx, r.client, r.BaseURL+"/api/status", &st); err != nil {
		return drive.StatusResponse{}, newTransportError("status", err)
	}
	return st, nil
}

func containsCode(body, code string) bool {
	var resp drive.ErrorResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return false
	}
	return resp.Code == code
}
