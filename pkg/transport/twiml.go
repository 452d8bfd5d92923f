package transport

import (
	"fmt"
	"strings"
)

// StreamParam is an extra custom parameter carried into the media stream
// start message.
type StreamParam struct {
	Name  string
	Value string
}

// TwiML produces the voice webhook response that connects a call to the
// media stream websocket. direction rides along as a custom parameter so
// the stream handler knows whether to look up outbound context; extra
// parameters are passed through the same way.
func TwiML(streamURL, direction string, extra ...StreamParam) string {
	var params strings.Builder
	fmt.Fprintf(&params, `            <Parameter name="direction" value="%s" />`, xmlEscape(direction))
	for _, p := range extra {
		fmt.Fprintf(&params, "\n            <Parameter name=\"%s\" value=\"%s\" />", xmlEscape(p.Name), xmlEscape(p.Value))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Connect>
        <Stream url="%s">
%s
        </Stream>
    </Connect>
</Response>`, streamURL, params.String())
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

// StreamURL converts the public base URL to the websocket media endpoint.
func StreamURL(externalURL string) string {
	ws := strings.Replace(externalURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimSuffix(ws, "/") + "/media"
}
