package camera

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the camera's URL when the computer is
	// connected to the camera's own Wi-Fi network.
	DefaultBaseURL = "http://192.168.0.10/"

	// userAgent must identify us as the vendor's phone app or the
	// camera refuses most commands.
	userAgent = "OI.Share v2"

	// DefaultLiveviewPort is the UDP port liveview defaults to.
	DefaultLiveviewPort = 40000

	// DefaultResolution is the liveview resolution every model
	// supports.
	DefaultResolution = "0640x0480"

	// httpTimeout bounds every camera request. Image downloads use a
	// longer limit.
	httpTimeout     = 10 * time.Second
	downloadTimeout = 5 * time.Minute

	// execLockTimeout bounds the wait for exclusive command execution.
	execLockTimeout = 10 * time.Second
)

// Response is a camera command response with the body already read.
type Response struct {
	StatusCode  int
	ContentType string
	URL         string
	Body        []byte
}

// Config configures a camera Client. The zero value talks to a real
// camera at DefaultBaseURL.
type Config struct {
	// BaseURL overrides the camera URL, mainly for tests.
	BaseURL string
	// HTTPClient overrides the HTTP client used for commands.
	HTTPClient *http.Client
}

// Client communicates with an Olympus camera over Wi-Fi. Create one
// with Connect, which queries the camera for its supported commands;
// all later commands are validated against that answer.
type Client struct {
	baseURL    string
	host       string
	http       *http.Client
	exec       chan struct{}
	status     camStatus
	versions   map[string]string
	supported  map[string]bool
	info       map[string]string
	commands   map[string]CommandDescr
	propValues map[string][]string
}

// Connect contacts the camera, downloads its command descriptor list,
// queries model information and settable properties, and leaves the
// camera in play mode.
//
// Parameters:
//   - cfg: connection configuration; zero value for a real camera
//
// Returns:
//   - *Client: connected client
//   - error: any HTTP or protocol error during the handshake
func Connect(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpTimeout}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid camera URL '%s': %w", baseURL, err)
	}

	c := &Client{
		baseURL: baseURL,
		host:    u.Host,
		http:    httpClient,
		exec:    make(chan struct{}, 1),
		// get_commandlist is the one command known before the camera
		// has told us anything.
		commands: map[string]CommandDescr{
			"get_commandlist": {Method: "get"},
		},
	}

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"base_url": baseURL,
	}).Info("Connecting to camera")

	resp, err := c.SendCommand("get_commandlist")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch command list: %w", err)
	}
	c.commands, c.supported, c.versions, err = parseCommandList(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := c.fetchCameraInfo(); err != nil {
		return nil, err
	}
	if err := c.fetchPropertyValues(); err != nil {
		return nil, err
	}
	if err := c.switchCammode(CamModePlay, false); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Connect",
		"model":    c.Model(),
		"commands": len(c.commands),
	}).Info("Camera connected")
	return c, nil
}

// fetchCameraInfo issues get_caminfo and stores the flattened result;
// it contains the camera model.
func (c *Client) fetchCameraInfo() error {
	records, err := c.XMLQuery("get_caminfo")
	if err != nil {
		return fmt.Errorf("failed to query camera info: %w", err)
	}
	c.info = make(map[string]string)
	for _, record := range records {
		for k, v := range record {
			c.info[k] = v
		}
	}
	return nil
}

// fetchPropertyValues collects the supported values of all writable
// camera properties. The camera answers the desclist query only in rec
// mode.
func (c *Client) fetchPropertyValues() error {
	if err := c.switchCammode(CamModeRecord, false); err != nil {
		return err
	}
	records, err := c.XMLQuery("get_camprop",
		Arg{"com", "desc"}, Arg{"propname", "desclist"})
	if err != nil {
		return fmt.Errorf("failed to query camera properties: %w", err)
	}

	c.propValues = make(map[string][]string)
	for _, prop := range records {
		if prop["attribute"] != "getset" {
			continue
		}
		name, enum := prop["propname"], prop["enum"]
		if name == "" || enum == "" {
			continue
		}
		c.propValues[name] = strings.Fields(enum)
	}
	return nil
}

// SendCommand validates and sends a GET command to the camera.
//
// Parameters:
//   - command: camera command name, without the .cgi suffix
//   - args: ordered command arguments
//
// Returns:
//   - *Response: the camera's answer for status 200 or 202
//   - error: *RequestError for invalid commands, *ResultError for
//     error answers, or the underlying HTTP error
func (c *Client) SendCommand(command string, args ...Arg) (*Response, error) {
	if err := c.checkValidCommand(command, args); err != nil {
		return nil, err
	}
	if method := c.commands[command].Method; method != "get" {
		return nil, &RequestError{Message: fmt.Sprintf(
			"error in '%s': method '%s' requires post data", command, method)}
	}
	return c.do("GET", command, args, nil, "")
}

// SendCommandPost validates and sends a POST command to the camera.
// XML post data is sent with the content type the camera expects.
func (c *Client) SendCommandPost(command string, postData []byte, args ...Arg) (*Response, error) {
	if err := c.checkValidCommand(command, args); err != nil {
		return nil, err
	}
	if method := c.commands[command].Method; method != "post" {
		return nil, &RequestError{Message: fmt.Sprintf(
			"error in '%s': method '%s' does not accept post data", command, method)}
	}
	contentType := ""
	if bytes.HasPrefix(postData, []byte("<?xml ")) {
		contentType = "text/plain;charset=utf-8"
	}
	return c.do("POST", command, args, postData, contentType)
}

// do performs one HTTP exchange with the camera.
func (c *Client) do(method, command string, args []Arg, body []byte, contentType string) (*Response, error) {
	reqURL := c.baseURL + command + ".cgi"
	if len(args) > 0 {
		reqURL += "?" + encodeArgs(args)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Client.do",
		"method":   method,
		"url":      reqURL,
	}).Debug("Sending camera command")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, reqURL, reader)
	if err != nil {
		return nil, err
	}
	req.Host = c.host
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("camera request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera response: %w", err)
	}

	resp := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		URL:         reqURL,
		Body:        respBody,
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, &ResultError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    errorDetail(resp),
		}
	}
	return resp, nil
}

// errorDetail extracts the camera's own error description from an
// error response body.
func errorDetail(resp *Response) string {
	if resp.ContentType == "text/xml" {
		if records, err := parseXMLRecords(resp.Body); err == nil && len(records) > 0 {
			var parts []string
			for k, v := range records[0] {
				parts = append(parts, fmt.Sprintf("%s=%s", k, v))
			}
			return strings.Join(parts, ", ")
		}
	}
	return strings.ReplaceAll(string(resp.Body), "\r\n", "")
}

// encodeArgs builds a query string preserving argument order; the
// camera is sensitive to it for some commands.
func encodeArgs(args []Arg) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(a.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(a.Value))
	}
	return b.String()
}

// XMLQuery sends a command and parses the XML answer into flat string
// maps.
func (c *Client) XMLQuery(command string, args ...Arg) ([]map[string]string, error) {
	resp, err := c.SendCommand(command, args...)
	if err != nil {
		return nil, err
	}
	if resp.ContentType != "text/xml" {
		return nil, nil
	}
	return parseXMLRecords(resp.Body)
}

// Versions returns the camera's version tags from get_commandlist.
func (c *Client) Versions() map[string]string {
	return c.versions
}

// Supported returns the set of func names the camera reports as
// supported.
func (c *Client) Supported() map[string]bool {
	return c.supported
}

// Info returns the camera info record; it includes the entry "model".
func (c *Client) Info() map[string]string {
	return c.info
}

// Model returns the camera model name.
func (c *Client) Model() string {
	if model, ok := c.info["model"]; ok {
		return model
	}
	return "unknown model"
}

// Commands returns the camera's command descriptors.
func (c *Client) Commands() map[string]CommandDescr {
	return c.commands
}

// SettablePropertyValues returns each writable camera property and its
// supported values.
func (c *Client) SettablePropertyValues() map[string][]string {
	return c.propValues
}

// LiveviewResolutions returns the liveview resolutions the camera
// supports, smallest first, as reported in the switch_cammode
// descriptor. Falls back to DefaultResolution when the camera does not
// enumerate them.
func (c *Client) LiveviewResolutions() []string {
	if descr, ok := c.commands["switch_cammode"]; ok {
		if rec, ok := descr.Args["mode"]["rec"]; ok {
			if lvqty, ok := rec["lvqty"]; ok {
				res := make([]string, 0, len(lvqty))
				for v := range lvqty {
					res = append(res, v)
				}
				sort.Strings(res)
				return res
			}
		}
	}
	return []string{DefaultResolution}
}
