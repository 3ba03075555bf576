package twilio

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
)

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twimlParameter `xml:"Parameter,omitempty"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// StreamTwiML answers a voice webhook by connecting the call to a
// bidirectional media stream at wsURL. Parameters are handed back to the
// stream in the start message.
func StreamTwiML(wsURL string, parameters map[string]string) (string, error) {
	stream := twimlStream{URL: wsURL}
	for _, name := range slices.Sorted(maps.Keys(parameters)) {
		stream.Parameters = append(stream.Parameters, twimlParameter{Name: name, Value: parameters[name]})
	}

	body, err := xml.Marshal(twimlResponse{Connect: twimlConnect{Stream: stream}})
	if err != nil {
		return "", fmt.Errorf("failed to render twiml: %w", err)
	}
	return xml.Header + string(body), nil
}
