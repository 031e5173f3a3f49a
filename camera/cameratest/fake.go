// Package cameratest provides a fake Olympus camera HTTP endpoint for
// tests. It speaks just enough of the camera's CGI protocol to carry a
// client through the connection handshake, property access, liveview
// start/stop, and image listing and download.
package cameratest

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// commandList is the descriptor answer of a small camera: which
// commands exist, their HTTP methods, and the argument trees clients
// validate against.
const commandList = `<?xml version="1.0"?>
<oishare>
<version>4.20</version>
<oitrackversion>2.10</oitrackversion>
<support func="web"/>
<support func="remote"/>
<cgi name="get_commandlist"><http_method type="get"/></cgi>
<cgi name="get_caminfo"><http_method type="get"/></cgi>
<cgi name="exec_pwoff"><http_method type="get"/></cgi>
<cgi name="get_imglist"><http_method type="get">
  <cmd1 name="DIR"><param1/></cmd1>
</http_method></cgi>
<cgi name="get_thumbnail"><http_method type="get">
  <cmd1 name="DIR"><param1/></cmd1>
</http_method></cgi>
<cgi name="switch_cammode"><http_method type="get">
  <cmd1 name="mode">
    <param1 name="rec">
      <param2 name="lvqty">
        <param3 name="0320x0240"/>
        <param3 name="0640x0480"/>
      </param2>
    </param1>
    <param1 name="play"/>
    <param1 name="shutter"/>
  </cmd1>
</http_method></cgi>
<cgi name="exec_takemisc"><http_method type="get">
  <cmd1 name="com">
    <param1 name="startliveview">
      <param2 name="port"><param3/></param2>
    </param1>
    <param1 name="stopliveview"/>
  </cmd1>
</http_method></cgi>
<cgi name="exec_takemotion"><http_method type="get">
  <cmd1 name="com">
    <param1 name="starttake"/>
  </cmd1>
</http_method></cgi>
<cgi name="exec_shutter"><http_method type="get">
  <cmd1 name="com">
    <param1 name="1st2ndpush"/>
    <param1 name="2nd1strelease"/>
  </cmd1>
</http_method></cgi>
<cgi name="set_utctimediff"><http_method type="get">
  <cmd1 name="utctime">
    <cmd2 name="diff"><param1/></cmd2>
  </cmd1>
</http_method></cgi>
<cgi name="get_camprop"><http_method type="get">
  <cmd1 name="com">
    <param1 name="get">
      <param2 name="propname">
        <param3 name="takemode"/>
        <param3 name="batterylevel"/>
      </param2>
    </param1>
    <param1 name="desc">
      <param2 name="propname">
        <param3 name="desclist"/>
      </param2>
    </param1>
  </cmd1>
</http_method></cgi>
<cgi name="set_camprop"><http_method type="post">
  <cmd1 name="com">
    <param1 name="set">
      <param2 name="propname"><param3/></param2>
    </param1>
  </cmd1>
</http_method></cgi>
</oishare>
`

const descList = `<?xml version="1.0"?>
<desclist>
<desc><propname>takemode</propname><attribute>getset</attribute><value>P</value><enum>P A S M iAuto</enum></desc>
<desc><propname>batterylevel</propname><attribute>get</attribute><value>full</value></desc>
</desclist>
`

const startLiveviewAnswer = `<?xml version="1.0"?>
<response><funcid name="affrm"/><funcid name="orientation"/></response>
`

// Fake is an in-process stand-in for a camera. All mutating state is
// guarded by mu; the http test server calls handlers concurrently.
type Fake struct {
	Server *httptest.Server

	// Model is reported by get_caminfo.
	Model string

	// Images maps card paths to file contents served for downloads.
	// List entries are generated from ImgList.
	Images map[string][]byte

	// ImgList maps a DIR argument to the CSV body get_imglist answers
	// with. A missing entry answers 404, like a camera with an empty
	// card.
	ImgList map[string]string

	mu         sync.Mutex
	mode       string
	liveview   bool
	properties map[string]string
	requests   []string
}

// New starts a fake camera and registers its shutdown with t.Cleanup.
func New(t *testing.T) *Fake {
	t.Helper()

	f := &Fake{
		Model:      "E-M10MarkII",
		Images:     map[string][]byte{},
		ImgList:    map[string]string{},
		properties: map[string]string{"takemode": "P", "batterylevel": "full"},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake camera's base URL.
func (f *Fake) URL() string {
	return f.Server.URL + "/"
}

// Requests returns every request seen so far as "path?query" strings,
// in order.
func (f *Fake) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Mode returns the camera mode as the fake last saw it.
func (f *Fake) Mode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// LiveviewActive reports whether the fake believes a liveview
// broadcast is running.
func (f *Fake) LiveviewActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveview
}

// Property returns a camera property as the fake last stored it.
func (f *Fake) Property(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.properties[name]
}

func (f *Fake) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
	f.mu.Unlock()

	// The camera refuses clients that do not identify as the vendor
	// app.
	if r.Header.Get("User-Agent") != "OI.Share v2" {
		http.Error(w, "unsupported user agent", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/get_commandlist.cgi":
		f.answerXML(w, commandList)
	case "/get_caminfo.cgi":
		f.answerXML(w, fmt.Sprintf(
			"<?xml version=\"1.0\"?>\n<caminfo><model>%s</model></caminfo>\n", f.Model))
	case "/switch_cammode.cgi":
		f.mu.Lock()
		f.mode = q.Get("mode")
		f.liveview = false
		f.mu.Unlock()
	case "/get_camprop.cgi":
		f.handleGetProp(w, q)
	case "/set_camprop.cgi":
		f.handleSetProp(w, r)
	case "/exec_takemisc.cgi":
		f.handleTakeMisc(w, q)
	case "/exec_takemotion.cgi", "/exec_shutter.cgi", "/exec_pwoff.cgi", "/set_utctimediff.cgi":
		// Accepted without further effect.
	case "/get_imglist.cgi":
		f.handleImgList(w, q)
	case "/get_thumbnail.cgi":
		f.handleDownload(w, q.Get("DIR"))
	default:
		f.handleDownload(w, r.URL.Path)
	}
}

func (f *Fake) answerXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(body))
}

func (f *Fake) handleGetProp(w http.ResponseWriter, q map[string][]string) {
	com := first(q, "com")
	name := first(q, "propname")

	switch {
	case com == "desc" && name == "desclist":
		f.answerXML(w, descList)
	case com == "get":
		f.mu.Lock()
		value := f.properties[name]
		f.mu.Unlock()
		f.answerXML(w, fmt.Sprintf(
			"<?xml version=\"1.0\"?>\n<camprop><value>%s</value></camprop>\n", value))
	default:
		http.Error(w, "unknown camprop query", http.StatusBadRequest)
	}
}

func (f *Fake) handleSetProp(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("propname")

	var body struct {
		Value string `xml:"value"`
	}
	if err := xmlDecode(r, &body); err != nil {
		http.Error(w, "bad post body", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.properties[name] = body.Value
	f.mu.Unlock()
}

func (f *Fake) handleTakeMisc(w http.ResponseWriter, q map[string][]string) {
	switch first(q, "com") {
	case "startliveview":
		f.mu.Lock()
		f.liveview = true
		f.mu.Unlock()
		f.answerXML(w, startLiveviewAnswer)
	case "stopliveview":
		f.mu.Lock()
		f.liveview = false
		f.mu.Unlock()
	default:
		http.Error(w, "unknown takemisc command", http.StatusBadRequest)
	}
}

func (f *Fake) handleImgList(w http.ResponseWriter, q map[string][]string) {
	body, ok := f.ImgList[first(q, "DIR")]
	if !ok {
		http.Error(w, "no such directory", http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (f *Fake) handleDownload(w http.ResponseWriter, path string) {
	content, ok := f.Images[strings.TrimPrefix(path, "/")]
	if !ok {
		content, ok = f.Images[path]
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_, _ = w.Write(content)
}

func xmlDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return xml.NewDecoder(r.Body).Decode(v)
}

func first(q map[string][]string, key string) string {
	if v := q[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
