package builtin

import (
	"io"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// HttpGet performs a GET with optional headers, returning the response
// status line and body (response headers are not returned). Kept on net/http rather than an
// ecosystem HTTP client: none of the retrieval pack's manifests pull in
// resty/req/etc. for outbound calls, and net/http already covers this
// opcode's needs.
func HttpGet(url string, headers map[string]string) (status string, body string, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status, "", err
	}
	return resp.Status, string(b), nil
}

// HttpPost performs a POST with a string body and optional headers.
func HttpPost(url, body string, headers map[string]string) (status string, respBody string, err error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status, "", err
	}
	return resp.Status, string(b), nil
}

// SendMail delivers a plain-text message via SMTP, grounded on net/smtp --
// spec.md's domain stack table lists this as a stdlib-justified leaf since
// none of the pack's manifests carry a richer mail client for a single
// fire-and-forget send.
func SendMail(addr, from string, to []string, subject, body string) error {
	msg := "To: " + strings.Join(to, ",") + "\r\nSubject: " + subject + "\r\n\r\n" + body
	return smtp.SendMail(addr, nil, from, to, []byte(msg))
}

// LocalIp returns the first non-loopback IPv4 address found on a local
// interface.
func LocalIp() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
